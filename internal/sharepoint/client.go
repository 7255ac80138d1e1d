// Package sharepoint talks to SharePoint Online through its REST/OData API
// and the CSOM ProcessQuery endpoint.
package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"

	"o365cli/internal/auth"
	"o365cli/internal/common/logger"
	"o365cli/internal/common/pipeline"
)

const (
	acceptNoMetadata = "application/json;odata=nometadata"
	moduleName       = "o365cli/sharepoint"
)

// ClientOptions configures the HTTP pipeline of a Client.
type ClientOptions = pipeline.Options

// Client issues SharePoint REST and CSOM requests authorized for one tenant.
type Client struct {
	pl     runtime.Pipeline
	logger *slog.Logger
}

// NewClient returns a client whose requests carry bearer tokens for resource,
// the SharePoint origin such as https://contoso.sharepoint.com.
func NewClient(cred azcore.TokenCredential, resource string, opts *ClientOptions) *Client {
	if opts == nil {
		opts = &ClientOptions{}
	}
	return &Client{
		pl:     pipeline.New(moduleName, cred, auth.Scope(resource), opts),
		logger: opts.Logger,
	}
}

// apiURL joins a site URL and a REST path without doubling slashes.
func apiURL(siteURL, path string) string {
	return strings.TrimSuffix(siteURL, "/") + path
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string) (*policy.Request, error) {
	req, err := runtime.NewRequest(ctx, method, endpoint)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", endpoint, err)
	}
	req.Raw().Header.Set("Accept", acceptNoMetadata)
	return req, nil
}

// send runs req through the pipeline and returns the body of a 2xx response.
// Any other status becomes an *ODataError carrying the service message.
func (c *Client) send(req *policy.Request) ([]byte, error) {
	logger.LogDebug(c.logger, "SharePoint request", "method", req.Raw().Method, "url", req.Raw().URL.String())

	resp, err := c.pl.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := runtime.Payload(resp)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	logger.LogDebug(c.logger, "SharePoint response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newODataError(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}
	return c.send(req)
}

func (c *Client) post(ctx context.Context, endpoint string, digest *RequestDigest, contentType string, body io.ReadSeeker) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodPost, endpoint)
	if err != nil {
		return nil, err
	}
	if digest != nil {
		req.Raw().Header.Set("X-RequestDigest", digest.Value)
	}
	if body != nil {
		if err := req.SetBody(streaming.NopCloser(body), contentType); err != nil {
			return nil, fmt.Errorf("set request body: %w", err)
		}
	}
	return c.send(req)
}

// decodeValue unmarshals an OData collection {"value": [...]}.
func decodeValue(body []byte) ([]map[string]any, error) {
	var payload struct {
		Value []map[string]any `json:"value"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return payload.Value, nil
}

// isNullSentinel reports whether body is SharePoint's {"odata.null": true}
// answer for an object that does not exist.
func isNullSentinel(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	v, ok := payload["odata.null"].(bool)
	return ok && v
}
