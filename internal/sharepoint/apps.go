package sharepoint

import (
	"context"
	"fmt"
	"strings"
)

// AppCatalogScope selects the tenant or a site collection app catalog.
type AppCatalogScope string

const (
	AppCatalogTenant         AppCatalogScope = "tenant"
	AppCatalogSiteCollection AppCatalogScope = "sitecollection"
)

// ParseAppCatalogScope validates an app catalog scope, ignoring case.
// An empty value means the tenant catalog.
func ParseAppCatalogScope(s string) (AppCatalogScope, error) {
	switch AppCatalogScope(strings.ToLower(s)) {
	case "", AppCatalogTenant:
		return AppCatalogTenant, nil
	case AppCatalogSiteCollection:
		return AppCatalogSiteCollection, nil
	}
	return "", fmt.Errorf("%s is not a valid scope. Allowed values are tenant|sitecollection", s)
}

// ListApps returns the apps available in the app catalog reachable from baseURL.
func (c *Client) ListApps(ctx context.Context, baseURL string, scope AppCatalogScope) ([]map[string]any, error) {
	body, err := c.get(ctx, apiURL(baseURL, fmt.Sprintf("/_api/web/%sappcatalog/AvailableApps", scope)))
	if err != nil {
		return nil, err
	}
	return decodeValue(body)
}
