// Package pipeline builds the azcore HTTP pipeline shared by the REST clients:
// bearer tokens, retries, rate limiting and the o365 user agent.
package pipeline

import (
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"

	"o365cli/internal/common/ratelimit"
	"o365cli/internal/common/version"
)

// Options configures a pipeline.
type Options struct {
	// Transport sends the requests. Nil means the azcore default client.
	Transport policy.Transporter
	// MaxRetries of throttled or failed requests. Zero means the azcore default, negative disables retries.
	MaxRetries int32
	// Limiter throttles every attempt. Nil disables rate limiting.
	Limiter *ratelimit.Limiter
	Logger  *slog.Logger
}

// New returns a pipeline authorizing requests with tokens for scope.
func New(module string, cred azcore.TokenCredential, scope string, opts *Options) runtime.Pipeline {
	if opts == nil {
		opts = &Options{}
	}

	perRetry := []policy.Policy{
		runtime.NewBearerTokenPolicy(cred, []string{scope}, nil),
	}
	if opts.Limiter != nil && opts.Limiter.Enabled() {
		perRetry = append(perRetry, opts.Limiter.Policy())
	}

	clientOpts := &policy.ClientOptions{
		Retry:     policy.RetryOptions{MaxRetries: opts.MaxRetries},
		Telemetry: policy.TelemetryOptions{ApplicationID: version.UserAgent()},
	}
	if opts.Transport != nil {
		clientOpts.Transport = opts.Transport
	}

	return runtime.NewPipeline(module, version.Get(), runtime.PipelineOptions{PerRetry: perRetry}, clientOpts)
}
