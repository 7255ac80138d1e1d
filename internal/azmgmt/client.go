// Package azmgmt reads Power Automate (Microsoft Flow) data through the
// Azure management REST API.
package azmgmt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"

	"o365cli/internal/auth"
	"o365cli/internal/common/logger"
	"o365cli/internal/common/pipeline"
)

// DefaultEndpoint is the Azure management service root.
const DefaultEndpoint = "https://management.azure.com"

const flowAPIVersion = "2016-11-01"

// Client calls the Azure management API.
type Client struct {
	pl       runtime.Pipeline
	endpoint string
	logger   *slog.Logger
}

// NewClient returns a client for endpoint, DefaultEndpoint when empty.
func NewClient(cred azcore.TokenCredential, endpoint string, opts *pipeline.Options) *Client {
	if opts == nil {
		opts = &pipeline.Options{}
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	resource, _ := auth.ResourceFor(auth.ServiceAzMgmt, "")
	return &Client{
		pl:       pipeline.New("o365cli/azmgmt", cred, auth.Scope(resource), opts),
		endpoint: strings.TrimSuffix(endpoint, "/"),
		logger:   opts.Logger,
	}
}

// Error is an error answer from the management API.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string { return e.Message }

// FlowEnvironments lists the Power Automate environments the signed-in user can see.
func (c *Client) FlowEnvironments(ctx context.Context) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("%s/providers/Microsoft.ProcessSimple/environments?api-version=%s", c.endpoint, flowAPIVersion)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Value []map[string]any `json:"value"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse environments: %w", err)
	}

	// Text output shows displayName, which lives under properties.
	for _, env := range payload.Value {
		if props, ok := env["properties"].(map[string]any); ok {
			if _, exists := env["displayName"]; !exists {
				env["displayName"] = props["displayName"]
			}
		}
	}
	return payload.Value, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := runtime.NewRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", endpoint, err)
	}
	req.Raw().Header.Set("Accept", "application/json")

	logger.LogDebug(c.logger, "Azure management request", "url", endpoint)
	resp, err := c.pl.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := runtime.Payload(resp)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return nil, newError(resp.StatusCode, body)
	}
	return body, nil
}

func newError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Code = payload.Error.Code
		e.Message = payload.Error.Message
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("%d %s", status, http.StatusText(status))
	}
	return e
}
