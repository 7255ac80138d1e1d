package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"o365cli/internal/common/logger"
)

// Manager connects, disconnects and restores service connections.
type Manager struct {
	Store         *Store
	NewCredential CredentialFactory
	Now           func() time.Time
	Logger        *slog.Logger
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) factory() CredentialFactory {
	if m.NewCredential != nil {
		return m.NewCredential
	}
	return NewCredential
}

// Connect signs in to service, records the tenant and token, and marks the
// connection active. siteURL is required for SharePoint only.
func (m *Manager) Connect(ctx context.Context, service Service, siteURL string, opts CredentialOptions) (*Connection, error) {
	resource, err := ResourceFor(service, siteURL)
	if err != nil {
		return nil, err
	}
	if opts.AuthType == "" {
		opts.AuthType = AuthDeviceCode
	}
	if opts.AppID == "" {
		opts.AppID = DefaultAppID
	}
	if opts.Tenant == "" {
		opts.Tenant = DefaultTenant
	}

	cred, err := m.factory()(opts)
	if err != nil {
		return nil, fmt.Errorf("authentication setup failed: %w", err)
	}

	tok, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{Scope(resource)}})
	if err != nil {
		return nil, err
	}

	conn := &Connection{
		Service:         service,
		Connected:       true,
		Resource:        resource,
		AuthType:        opts.AuthType,
		AppID:           opts.AppID,
		Tenant:          opts.Tenant,
		CertificateFile: opts.CertificateFile,
		AccessToken:     tok.Token,
		ExpiresOn:       tok.ExpiresOn,
	}
	if service == ServiceSharePoint {
		conn.URL = siteURL
	}

	if claims, err := ParseClaims(tok.Token); err != nil {
		logger.LogDebug(m.Logger, "Could not parse token claims", "error", err)
	} else {
		conn.TenantID = claims.TenantID
		conn.UserName = claims.Identity()
	}

	if err := m.Store.Save(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Disconnect forgets the connection of service.
func (m *Manager) Disconnect(service Service) error {
	return m.Store.Delete(service)
}

// Status returns the stored connection of service, connected or not.
func (m *Manager) Status(service Service) (*Connection, error) {
	return m.Store.Get(service)
}

// Credential restores the connection of service and returns a credential
// serving its cached token. secrets supplies what the store never keeps.
func (m *Manager) Credential(service Service, secrets CredentialOptions) (*Connection, azcore.TokenCredential, error) {
	conn, err := m.Store.Get(service)
	if err != nil {
		return nil, nil, err
	}
	if err := conn.Require(); err != nil {
		return nil, nil, err
	}

	opts := secrets
	opts.AuthType = conn.AuthType
	opts.AppID = conn.AppID
	opts.Tenant = conn.Tenant
	opts.CertificateFile = conn.CertificateFile

	factory := m.factory()
	return conn, &SessionCredential{
		conn:    conn,
		store:   m.Store,
		newCred: func() (azcore.TokenCredential, error) { return factory(opts) },
		now:     m.now,
		logger:  m.Logger,
	}, nil
}
