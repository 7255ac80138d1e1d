package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the claims of an Azure AD access token that o365 reports.
type TokenClaims struct {
	TenantID       string   `json:"tid"`
	UPN            string   `json:"upn"`
	UniqueName     string   `json:"unique_name"`
	AppID          string   `json:"appid"`
	AppDisplayName string   `json:"app_displayname"`
	Roles          []string `json:"roles"`
	Scopes         string   `json:"scp"`
	jwt.RegisteredClaims
}

// ParseClaims decodes an access token without verifying it; the token came
// straight from Azure AD.
func ParseClaims(token string) (*TokenClaims, error) {
	parsed, _, err := new(jwt.Parser).ParseUnverified(token, &TokenClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok {
		return nil, fmt.Errorf("failed to extract claims from token")
	}
	return claims, nil
}

// Identity returns the signed-in user, or the application for app-only tokens.
func (c *TokenClaims) Identity() string {
	switch {
	case c.UPN != "":
		return c.UPN
	case c.UniqueName != "":
		return c.UniqueName
	case c.AppDisplayName != "":
		return c.AppDisplayName
	}
	return c.AppID
}
