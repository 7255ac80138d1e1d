// Package auth keeps per-service connections to Office 365 and hands out
// token credentials that reuse the cached access token while it is valid.
package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Service identifies the endpoint family a connection authenticates against.
type Service string

const (
	ServiceSharePoint Service = "spo"
	ServiceAzMgmt     Service = "azmgmt"
	ServiceGraph      Service = "graph"
)

// AuthType selects the Azure AD flow used to acquire tokens.
type AuthType string

const (
	AuthDeviceCode  AuthType = "deviceCode"
	AuthSecret      AuthType = "secret"
	AuthCertificate AuthType = "certificate"
)

// ParseAuthType validates an --authType value. Empty means device code.
func ParseAuthType(s string) (AuthType, error) {
	switch strings.ToLower(s) {
	case "", "devicecode":
		return AuthDeviceCode, nil
	case "secret":
		return AuthSecret, nil
	case "certificate":
		return AuthCertificate, nil
	}
	return "", fmt.Errorf("%s is not a valid authType. Allowed values are deviceCode|secret|certificate", s)
}

const (
	// DefaultAppID is the multi-tenant Azure AD application used when no app id is configured.
	DefaultAppID = "31359c7f-bd7e-475c-86db-fdb8c937548e"
	// DefaultTenant is the authority tenant used when none is configured.
	DefaultTenant = "common"

	azureManagementResource = "https://management.azure.com/"
	graphResource           = "https://graph.microsoft.com"
)

// ErrNotConnected is wrapped by every NotConnectedError.
var ErrNotConnected = errors.New("not connected")

// NotConnectedError is returned when a command runs before the matching connect.
type NotConnectedError struct {
	Service Service
}

func (e *NotConnectedError) Error() string {
	switch e.Service {
	case ServiceSharePoint:
		return "Connect to a SharePoint Online site first"
	case ServiceAzMgmt:
		return "Connect to the Azure Management Service first"
	case ServiceGraph:
		return "Connect to the Microsoft Graph first"
	}
	return fmt.Sprintf("Connect to %s first", e.Service)
}

func (e *NotConnectedError) Unwrap() error { return ErrNotConnected }

// Connection is the persisted state of one service connection.
// Secrets and certificate passwords are never stored.
type Connection struct {
	Service         Service   `json:"service"`
	Connected       bool      `json:"connected"`
	URL             string    `json:"url,omitempty"`
	Resource        string    `json:"resource"`
	TenantID        string    `json:"tenantId,omitempty"`
	UserName        string    `json:"userName,omitempty"`
	AuthType        AuthType  `json:"authType"`
	AppID           string    `json:"appId"`
	Tenant          string    `json:"tenant"`
	CertificateFile string    `json:"certificateFile,omitempty"`
	AccessToken     string    `json:"accessToken,omitempty"`
	ExpiresOn       time.Time `json:"expiresOn"`
}

// Require returns a NotConnectedError unless the connection is active.
func (c *Connection) Require() error {
	if c == nil || !c.Connected {
		svc := Service("")
		if c != nil {
			svc = c.Service
		}
		return &NotConnectedError{Service: svc}
	}
	return nil
}

// ResourceFor returns the token audience of service. SharePoint tokens are
// issued for the origin of the site URL.
func ResourceFor(service Service, siteURL string) (string, error) {
	switch service {
	case ServiceSharePoint:
		u, err := url.Parse(siteURL)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("%s is not a valid SharePoint Online site URL", siteURL)
		}
		return u.Scheme + "://" + u.Host, nil
	case ServiceAzMgmt:
		return azureManagementResource, nil
	case ServiceGraph:
		return graphResource, nil
	}
	return "", fmt.Errorf("unknown service %q", service)
}

// Scope returns the .default scope for resource.
func Scope(resource string) string {
	return strings.TrimSuffix(resource, "/") + "/.default"
}
