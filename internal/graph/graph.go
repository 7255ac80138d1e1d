// Package graph resolves SharePoint sites through Microsoft Graph.
package graph

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"

	"o365cli/internal/auth"
	"o365cli/internal/common/retry"
)

// Site is the subset of a Graph site o365 reports.
type Site struct {
	ID              string
	Name            string
	DisplayName     string
	Description     string
	WebURL          string
	CreatedDateTime time.Time
}

// Map returns the site as output properties.
func (s *Site) Map() map[string]any {
	m := map[string]any{
		"id":          s.ID,
		"name":        s.Name,
		"displayName": s.DisplayName,
		"description": s.Description,
		"webUrl":      s.WebURL,
	}
	if !s.CreatedDateTime.IsZero() {
		m["createdDateTime"] = s.CreatedDateTime.UTC().Format(time.RFC3339)
	}
	return m
}

// Client wraps the Graph SDK client.
type Client struct {
	gs    *msgraphsdk.GraphServiceClient
	retry retry.Policy
}

// NewClient creates a Graph client authorized by cred. Calls failing with
// transient network errors are retried according to policy.
func NewClient(cred azcore.TokenCredential, policy retry.Policy) (*Client, error) {
	resource, _ := auth.ResourceFor(auth.ServiceGraph, "")
	gs, err := msgraphsdk.NewGraphServiceClientWithCredentials(cred, []string{auth.Scope(resource)})
	if err != nil {
		return nil, fmt.Errorf("graph client initialization failed: %w", err)
	}
	return &Client{gs: gs, retry: policy}, nil
}

// SiteID converts a site URL into the Graph site key {hostname}:{server-relative path}.
// The root site is addressed by hostname alone.
func SiteID(siteURL string) (string, error) {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%s is not a valid SharePoint Online site URL", siteURL)
	}
	path := strings.TrimSuffix(u.Path, "/")
	if path == "" {
		return u.Host, nil
	}
	return u.Host + ":" + path, nil
}

// GetSite looks up the site at siteURL.
func (c *Client) GetSite(ctx context.Context, siteURL string) (*Site, error) {
	id, err := SiteID(siteURL)
	if err != nil {
		return nil, err
	}
	var s models.Siteable
	err = c.retry.WithBackoff(ctx, func() error {
		var getErr error
		s, getErr = c.gs.Sites().BySiteId(id).Get(ctx, nil)
		return getErr
	})
	if err != nil {
		return nil, Unwrap(err)
	}
	return fromModel(s), nil
}

func fromModel(s models.Siteable) *Site {
	site := &Site{
		ID:          deref(s.GetId()),
		Name:        deref(s.GetName()),
		DisplayName: deref(s.GetDisplayName()),
		Description: deref(s.GetDescription()),
		WebURL:      deref(s.GetWebUrl()),
	}
	if t := s.GetCreatedDateTime(); t != nil {
		site.CreatedDateTime = *t
	}
	return site
}

// Unwrap replaces a Graph OData error by the message the service sent.
func Unwrap(err error) error {
	var odataErr *odataerrors.ODataError
	if !errors.As(err, &odataErr) {
		return err
	}
	inner := odataErr.GetErrorEscaped()
	if inner == nil || inner.GetMessage() == nil {
		return err
	}
	return errors.New(*inner.GetMessage())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
