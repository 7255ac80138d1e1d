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

// refreshMargin is how long before expiry a cached token stops being reused.
const refreshMargin = 5 * time.Minute

// SessionCredential serves the cached token of a connection and falls back to
// a fresh credential when the token is missing or about to expire. New tokens
// are written back to the store.
type SessionCredential struct {
	conn    *Connection
	store   *Store
	newCred func() (azcore.TokenCredential, error)
	now     func() time.Time
	logger  *slog.Logger
}

// GetToken implements azcore.TokenCredential.
func (s *SessionCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if s.conn.AccessToken != "" && s.conn.ExpiresOn.Sub(s.now()) > refreshMargin {
		logger.LogDebug(s.logger, "Reusing cached access token", "service", string(s.conn.Service), "expiresOn", s.conn.ExpiresOn)
		return azcore.AccessToken{Token: s.conn.AccessToken, ExpiresOn: s.conn.ExpiresOn}, nil
	}

	logger.LogDebug(s.logger, "Acquiring new access token", "service", string(s.conn.Service), "scopes", opts.Scopes)
	cred, err := s.newCred()
	if err != nil {
		return azcore.AccessToken{}, fmt.Errorf("authentication setup failed: %w", err)
	}
	tok, err := cred.GetToken(ctx, opts)
	if err != nil {
		return azcore.AccessToken{}, err
	}

	s.conn.AccessToken = tok.Token
	s.conn.ExpiresOn = tok.ExpiresOn
	if s.store != nil {
		if err := s.store.Save(s.conn); err != nil {
			logger.LogWarn(s.logger, "Could not persist refreshed token", "error", err)
		}
	}
	return tok, nil
}
