package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"o365cli/internal/common/logger"
)

// Scope is where a user custom action lives.
type Scope string

const (
	ScopeWeb  Scope = "Web"
	ScopeSite Scope = "Site"
	// ScopeAll probes the web first and the site collection second.
	ScopeAll Scope = "All"
)

// ParseScope validates a custom action scope. Matching is case-sensitive;
// an empty value means ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "":
		return ScopeAll, nil
	case ScopeWeb, ScopeSite, ScopeAll:
		return Scope(s), nil
	}
	return "", fmt.Errorf("%s is not a valid custom action scope. Allowed values are Site|Web|All", s)
}

// Probes returns the concrete scopes to try, in order.
func (s Scope) Probes() []Scope {
	if s == ScopeAll {
		return []Scope{ScopeWeb, ScopeSite}
	}
	return []Scope{s}
}

// RemoveResult describes the outcome of RemoveCustomAction.
type RemoveResult struct {
	// Removed is true when one of the probed scopes deleted the action.
	Removed bool
	// Scope is where the action was removed. Empty when not found.
	Scope Scope
	// Probed lists the scopes that were asked, in order.
	Probed []Scope
}

// RemoveCustomAction deletes the user custom action id from siteURL. For
// ScopeAll the web is tried first and the site collection only when the web
// answered that the action does not exist. One form digest serves all calls.
// Not finding the action in any scope is not an error.
func (c *Client) RemoveCustomAction(ctx context.Context, siteURL, id string, scope Scope) (*RemoveResult, error) {
	digest, err := c.RequestDigest(ctx, siteURL)
	if err != nil {
		return nil, err
	}

	result := &RemoveResult{}
	for _, s := range scope.Probes() {
		result.Probed = append(result.Probed, s)

		removed, err := c.removeCustomAction(ctx, siteURL, id, s, digest)
		if err != nil {
			return nil, err
		}
		if removed {
			result.Removed = true
			result.Scope = s
			return result, nil
		}
		logger.LogDebug(c.logger, "Custom action not found in scope", "id", id, "scope", string(s))
	}
	return result, nil
}

func (c *Client) removeCustomAction(ctx context.Context, siteURL, id string, scope Scope, digest *RequestDigest) (bool, error) {
	endpoint := apiURL(siteURL, fmt.Sprintf("/_api/%s/UserCustomActions('%s')/deleteObject()", scope, url.PathEscape(id)))
	body, err := c.post(ctx, endpoint, digest, "", nil)
	if err != nil {
		return false, err
	}
	return !isNullSentinel(body), nil
}

// GetCustomAction returns the custom action id and the scope it was found in,
// probing scopes like RemoveCustomAction. A nil action means not found.
func (c *Client) GetCustomAction(ctx context.Context, siteURL, id string, scope Scope) (map[string]any, Scope, error) {
	for _, s := range scope.Probes() {
		endpoint := apiURL(siteURL, fmt.Sprintf("/_api/%s/UserCustomActions('%s')", s, url.PathEscape(id)))
		body, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, "", err
		}
		if isNullSentinel(body) {
			continue
		}

		var action map[string]any
		if err := json.Unmarshal(body, &action); err != nil {
			return nil, "", fmt.Errorf("parse custom action: %w", err)
		}
		humanizeScope(action)
		return action, s, nil
	}
	return nil, "", nil
}

// ListCustomActions returns the custom actions of the requested scopes,
// web actions before site collection actions for ScopeAll.
func (c *Client) ListCustomActions(ctx context.Context, siteURL string, scope Scope) ([]map[string]any, error) {
	actions := []map[string]any{}
	for _, s := range scope.Probes() {
		body, err := c.get(ctx, apiURL(siteURL, fmt.Sprintf("/_api/%s/UserCustomActions", s)))
		if err != nil {
			return nil, err
		}
		items, err := decodeValue(body)
		if err != nil {
			return nil, err
		}
		for _, a := range items {
			humanizeScope(a)
		}
		actions = append(actions, items...)
	}
	return actions, nil
}

// humanizeScope replaces the numeric UserCustomActionScope with its name.
func humanizeScope(action map[string]any) {
	n, ok := action["Scope"].(float64)
	if !ok {
		return
	}
	switch int(n) {
	case 2:
		action["Scope"] = "Site"
	case 3:
		action["Scope"] = "Web"
	case 4:
		action["Scope"] = "List"
	default:
		action["Scope"] = "Unknown"
	}
}
