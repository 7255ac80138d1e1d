package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/urfave/cli/v2"

	"o365cli/internal/auth"
	"o365cli/internal/common/logger"
	"o365cli/internal/common/output"
	"o365cli/internal/common/pipeline"
	"o365cli/internal/common/prompt"
	"o365cli/internal/common/ratelimit"
	"o365cli/internal/common/retry"
	"o365cli/internal/common/version"
	"o365cli/internal/graph"
)

// siteGetter looks up sites through Microsoft Graph.
type siteGetter interface {
	GetSite(ctx context.Context, siteURL string) (*graph.Site, error)
}

// Runtime carries the process dependencies shared by every command.
// Tests replace the writers, the credential factory and the transport.
type Runtime struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	NewCredential auth.CredentialFactory
	// Transport sends SharePoint and Azure management requests. Nil means the azcore default.
	Transport policy.Transporter
	// Confirmer overrides the terminal prompt.
	Confirmer prompt.Confirmer
	Now       func() time.Time

	AzMgmtEndpoint string
	NewSiteGetter  func(azcore.TokenCredential, retry.Policy) (siteGetter, error)

	// ConfigFile is the default YAML config location.
	ConfigFile string

	config *Config
}

func newRuntime() *Runtime {
	return &Runtime{
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Stdin:         os.Stdin,
		NewCredential: auth.NewCredential,
		Now:           time.Now,
		NewSiteGetter: func(cred azcore.TokenCredential, rp retry.Policy) (siteGetter, error) {
			return graph.NewClient(cred, rp)
		},
		ConfigFile: defaultConfigFile(),
	}
}

const runtimeKey = "runtime"

func runtimeFrom(c *cli.Context) *Runtime {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt
	}
	return newRuntime()
}

// newApp builds the o365 command tree.
func newApp(rt *Runtime) *cli.App {
	if rt.Now == nil {
		rt.Now = time.Now
	}
	return &cli.App{
		Name:      "o365",
		Usage:     "Manage Microsoft Office 365 and SharePoint Online",
		Version:   version.Get(),
		Writer:    rt.Stdout,
		ErrWriter: rt.Stderr,
		Reader:    rt.Stdin,
		Metadata:  map[string]any{runtimeKey: rt},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"O365_CONFIG"},
			},
		},
		Before: func(c *cli.Context) error {
			path, explicit := rt.ConfigFile, false
			if c.IsSet("config") {
				path, explicit = c.String("config"), true
			}
			config, err := loadConfig(path, explicit)
			if err != nil {
				return err
			}
			if err := validateConfiguration(config); err != nil {
				return err
			}
			if config.Proxy != "" {
				os.Setenv("HTTP_PROXY", config.Proxy)
				os.Setenv("HTTPS_PROXY", config.Proxy)
			}
			rt.config = config
			return nil
		},
		Commands: []*cli.Command{
			spoCommand(),
			azmgmtCommand(),
			graphCommand(),
		},
	}
}

// commonFlags are carried by every leaf command.
func commonFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output type: text|json",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Run the command with verbose logging",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Run the command with debug logging (implies --verbose)",
		},
	)
}

// commandEnv is what a command handler works with.
type commandEnv struct {
	rt      *Runtime
	config  *Config
	printer *output.Printer
	logger  *slog.Logger
	manager *auth.Manager
	audit   *logger.CSVLogger
	debug   bool

	detach func()
}

// newCommandEnv resolves the common flags against the loaded configuration.
// It performs no network or connection store access.
func newCommandEnv(c *cli.Context) (*commandEnv, error) {
	rt := runtimeFrom(c)
	config := rt.config
	if config == nil {
		config = NewConfig()
	}

	outputType := config.Output
	if c.IsSet("output") {
		outputType = c.String("output")
	}
	format, err := output.ParseFormat(outputType)
	if err != nil {
		return nil, err
	}

	debug := c.Bool("debug")
	slogLogger := logger.SetupLogger(rt.Stderr, debug, config.LogLevel)
	detach := func() {}
	if debug {
		detach = logger.BridgeAzureLog(slogLogger)
	}

	storePath := config.ConnectionFile
	if storePath == "" {
		storePath, err = auth.DefaultStorePath()
		if err != nil {
			detach()
			return nil, err
		}
	}

	return &commandEnv{
		rt:     rt,
		config: config,
		printer: &output.Printer{
			Out:     rt.Stdout,
			Err:     rt.Stderr,
			Format:  format,
			Verbose: debug || c.Bool("verbose"),
		},
		logger: slogLogger,
		manager: &auth.Manager{
			Store:         auth.NewStore(storePath),
			NewCredential: rt.NewCredential,
			Now:           rt.Now,
			Logger:        slogLogger,
		},
		debug:  debug,
		detach: detach,
	}, nil
}

// close flushes the audit log and detaches the azcore log bridge.
func (e *commandEnv) close() {
	if e.audit != nil {
		if err := e.audit.Close(); err != nil {
			logger.LogWarn(e.logger, "Failed to close audit log", "error", err)
		}
	}
	e.detach()
}

// secrets returns the credential material that is never persisted.
func (e *commandEnv) secrets() auth.CredentialOptions {
	return auth.CredentialOptions{
		Secret:              e.config.Secret,
		CertificatePassword: e.config.CertificatePassword,
		Transport:           e.rt.Transport,
		Logger:              e.logger,
		UserPrompt:          e.deviceCodePrompt,
	}
}

// credential restores the connection of service.
func (e *commandEnv) credential(service auth.Service) (*auth.Connection, azcore.TokenCredential, error) {
	conn, cred, err := e.manager.Credential(service, e.secrets())
	if err != nil {
		return nil, nil, err
	}
	logger.LogDebug(e.logger, "Restored connection", "service", string(service), "resource", conn.Resource)
	return conn, cred, nil
}

// pipelineOptions returns the HTTP settings for REST clients.
func (e *commandEnv) pipelineOptions() *pipeline.Options {
	maxRetries := int32(e.config.MaxRetries)
	if maxRetries == 0 {
		maxRetries = -1
	}
	return &pipeline.Options{
		Transport:  e.rt.Transport,
		MaxRetries: maxRetries,
		Limiter:    ratelimit.New(e.config.RateLimit),
		Logger:     e.logger,
	}
}

// retryPolicy returns the retry settings for SDK clients outside the azcore pipeline.
func (e *commandEnv) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries: e.config.MaxRetries,
		BaseDelay:  time.Second,
		Logger:     e.logger,
	}
}

// confirmer returns the prompt used when --confirm is not given.
func (e *commandEnv) confirmer() prompt.Confirmer {
	if e.rt.Confirmer != nil {
		return e.rt.Confirmer
	}
	return &prompt.Terminal{In: e.rt.Stdin, Out: e.rt.Stderr}
}

// writeAudit appends a row to the audit log when auditing is enabled.
func (e *commandEnv) writeAudit(command, target, scope, id string, err error) {
	if !e.config.Audit {
		return
	}
	if e.audit == nil {
		l, openErr := logger.OpenAuditLog(e.config.AuditDir)
		if openErr != nil {
			logger.LogWarn(e.logger, "Failed to open audit log", "error", openErr)
			return
		}
		e.audit = l
	}

	result, detail := "SUCCESS", ""
	if err != nil {
		result, detail = "FAILURE", err.Error()
	}
	if writeErr := e.audit.WriteRow([]string{command, target, scope, id, result, detail}); writeErr != nil {
		logger.LogWarn(e.logger, "Failed to write audit log", "error", writeErr)
	}
}
