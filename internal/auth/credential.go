package auth

import (
	"context"
	"crypto"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"software.sslmate.com/src/go-pkcs12"

	"o365cli/internal/common/logger"
	"o365cli/internal/common/security"
)

// CredentialOptions describes how to obtain tokens for a connection.
type CredentialOptions struct {
	AuthType            AuthType
	AppID               string
	Tenant              string
	Secret              string
	CertificateFile     string
	CertificatePassword string

	// UserPrompt shows the device code message. Required for AuthDeviceCode.
	UserPrompt func(context.Context, azidentity.DeviceCodeMessage) error
	// Transport overrides the HTTP client used to reach Azure AD.
	Transport policy.Transporter
	Logger    *slog.Logger
}

// CredentialFactory builds a token credential. Tests substitute fakes.
type CredentialFactory func(CredentialOptions) (azcore.TokenCredential, error)

// NewCredential returns the azidentity credential matching opts.AuthType.
func NewCredential(opts CredentialOptions) (azcore.TokenCredential, error) {
	if opts.AppID == "" {
		opts.AppID = DefaultAppID
	}
	if opts.Tenant == "" {
		opts.Tenant = DefaultTenant
	}

	clientOpts := azcore.ClientOptions{}
	if opts.Transport != nil {
		clientOpts.Transport = opts.Transport
	}

	logger.LogDebug(opts.Logger, "Creating credential",
		"authType", string(opts.AuthType), "appId", security.MaskGUID(opts.AppID), "tenant", opts.Tenant)

	switch opts.AuthType {
	case AuthSecret:
		if opts.Secret == "" {
			return nil, fmt.Errorf("client secret required for authType secret (set O365_SECRET or --secret)")
		}
		logger.LogDebug(opts.Logger, "Using client secret", "secret", security.MaskSecret(opts.Secret))
		return azidentity.NewClientSecretCredential(opts.Tenant, opts.AppID, opts.Secret,
			&azidentity.ClientSecretCredentialOptions{ClientOptions: clientOpts})

	case AuthCertificate:
		if opts.CertificateFile == "" {
			return nil, fmt.Errorf("certificate file required for authType certificate")
		}
		pfxData, err := os.ReadFile(opts.CertificateFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read PFX file: %w", err)
		}
		logger.LogDebug(opts.Logger, "PFX file read successfully", "path", opts.CertificateFile, "bytes", len(pfxData))
		return newCertCredential(opts.Tenant, opts.AppID, pfxData, opts.CertificatePassword, clientOpts)

	case AuthDeviceCode, "":
		return azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
			ClientOptions: clientOpts,
			TenantID:      opts.Tenant,
			ClientID:      opts.AppID,
			UserPrompt:    opts.UserPrompt,
		})
	}

	return nil, fmt.Errorf("unsupported authType %q", opts.AuthType)
}

func newCertCredential(tenantID, clientID string, pfxData []byte, password string, clientOpts azcore.ClientOptions) (*azidentity.ClientCertificateCredential, error) {
	// go-pkcs12 handles SHA-256 MACs that x/crypto/pkcs12 rejects.
	key, cert, caCerts, err := pkcs12.DecodeChain(pfxData, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PFX: %w", err)
	}

	privKey, ok := key.(crypto.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("decoded key is not a valid crypto.PrivateKey")
	}

	// Leaf certificate first.
	certs := []*x509.Certificate{cert}
	certs = append(certs, caCerts...)

	return azidentity.NewClientCertificateCredential(tenantID, clientID, certs, privKey,
		&azidentity.ClientCertificateCredentialOptions{
			ClientOptions:        clientOpts,
			SendCertificateChain: true,
		})
}
