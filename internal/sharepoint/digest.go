package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RequestDigest is the form digest SharePoint requires on state-changing requests.
type RequestDigest struct {
	Value   string
	Timeout time.Duration
}

// RequestDigest obtains a form digest from {siteURL}/_api/contextinfo.
func (c *Client) RequestDigest(ctx context.Context, siteURL string) (*RequestDigest, error) {
	body, err := c.post(ctx, apiURL(siteURL, "/_api/contextinfo"), nil, "", nil)
	if err != nil {
		return nil, err
	}

	var info struct {
		FormDigestValue          string `json:"FormDigestValue"`
		FormDigestTimeoutSeconds int    `json:"FormDigestTimeoutSeconds"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parse context info: %w", err)
	}
	if info.FormDigestValue == "" {
		return nil, fmt.Errorf("context info of %s returned no form digest", siteURL)
	}

	return &RequestDigest{
		Value:   info.FormDigestValue,
		Timeout: time.Duration(info.FormDigestTimeoutSeconds) * time.Second,
	}, nil
}

// objectID reads the Id of the object at endpoint ($select=Id).
func (c *Client) objectID(ctx context.Context, endpoint string) (string, error) {
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}
	var obj struct {
		ID string `json:"Id"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", fmt.Errorf("parse %s: %w", endpoint, err)
	}
	return obj.ID, nil
}
