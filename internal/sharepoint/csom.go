package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const csomNamespace = "http://schemas.microsoft.com/sharepoint/clientquery/2009"

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes user input embedded in CSOM request bodies.
func EscapeXML(s string) string {
	return xmlReplacer.Replace(s)
}

// csomRequest wraps actions and object paths in a ProcessQuery envelope.
func csomRequest(appName, actions, objectPaths string) string {
	return `<Request AddExpandoFieldTypeSuffix="true" SchemaVersion="15.0.0.0" LibraryVersion="16.0.0.0" ApplicationName="` +
		EscapeXML(appName) + `" xmlns="` + csomNamespace + `"><Actions>` + actions +
		`</Actions><ObjectPaths>` + objectPaths + `</ObjectPaths></Request>`
}

// csomProperty renders a typed parameter property, Type="Null" when value is empty.
func csomProperty(name, value string) string {
	if value == "" {
		return `<Property Name="` + name + `" Type="Null" />`
	}
	return `<Property Name="` + name + `" Type="String">` + EscapeXML(value) + `</Property>`
}

// CSOMError is the ErrorInfo of a failed ProcessQuery call.
type CSOMError struct {
	Message  string
	Code     int
	TypeName string
}

func (e *CSOMError) Error() string {
	return e.Message
}

// ProcessQuery posts a CSOM request to {webURL}/_vti_bin/client.svc/ProcessQuery.
// The response is a JSON array whose first element reports errors.
func (c *Client) ProcessQuery(ctx context.Context, webURL string, digest *RequestDigest, body string) ([]json.RawMessage, error) {
	resp, err := c.post(ctx, apiURL(webURL, "/_vti_bin/client.svc/ProcessQuery"), digest,
		"text/xml", strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(resp, &items); err != nil {
		return nil, fmt.Errorf("parse ProcessQuery response: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("empty ProcessQuery response")
	}

	var head struct {
		ErrorInfo *struct {
			ErrorMessage  string `json:"ErrorMessage"`
			ErrorCode     int    `json:"ErrorCode"`
			ErrorTypeName string `json:"ErrorTypeName"`
		} `json:"ErrorInfo"`
	}
	if err := json.Unmarshal(items[0], &head); err != nil {
		return nil, fmt.Errorf("parse ProcessQuery response: %w", err)
	}
	if head.ErrorInfo != nil {
		return nil, &CSOMError{
			Message:  head.ErrorInfo.ErrorMessage,
			Code:     head.ErrorInfo.ErrorCode,
			TypeName: head.ErrorInfo.ErrorTypeName,
		}
	}
	return items, nil
}
