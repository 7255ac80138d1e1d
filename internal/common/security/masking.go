// Package security provides helpers for keeping credentials out of o365 output.
// Tokens, secrets and account names are masked before they reach debug logs,
// the status command or the audit log.
package security

import (
	"net/http"
	"strings"
)

// MaskAccessToken masks a bearer token for safe logging.
// Shows first 8 and last 4 characters with ... in between for long tokens.
// For shorter tokens, shows half on each side.
// Empty tokens return empty string.
func MaskAccessToken(token string) string {
	if len(token) == 0 {
		return ""
	}
	if len(token) <= 16 {
		return token[:len(token)/2] + "..." + token[len(token)/2:]
	}
	return token[:8] + "..." + token[len(token)-4:]
}

// MaskSecret masks a client secret or certificate password.
// Shows first 4 characters followed by asterisks.
func MaskSecret(secret string) string {
	if len(secret) == 0 {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}

// MaskGUID masks a tenant or application id.
// Shows first 8 characters followed by asterisks.
func MaskGUID(guid string) string {
	if len(guid) <= 8 {
		return guid + "****"
	}
	return guid[:8] + "****"
}

// MaskUPN masks a user principal name such as "admin@contoso.onmicrosoft.com".
// Example: "admin@contoso.com" becomes "ad****@co****"
func MaskUPN(upn string) string {
	if len(upn) == 0 {
		return ""
	}

	local, domain, found := strings.Cut(upn, "@")
	if !found {
		if len(upn) <= 4 {
			return "****"
		}
		return upn[:2] + "****" + upn[len(upn)-2:]
	}

	maskedLocal := "****"
	if len(local) > 2 {
		maskedLocal = local[:2] + "****"
	}

	maskedDomain := "****"
	if len(domain) > 2 {
		maskedDomain = domain[:2] + "****"
	}

	return maskedLocal + "@" + maskedDomain
}

// sensitiveHeaders are replaced wholesale when request headers are dumped in debug mode.
var sensitiveHeaders = []string{"Authorization", "X-RequestDigest"}

// MaskHeaders returns a copy of h with credential-bearing headers masked.
func MaskHeaders(h http.Header) http.Header {
	masked := h.Clone()
	for _, name := range sensitiveHeaders {
		v := masked.Get(name)
		if v == "" {
			continue
		}
		if scheme, token, ok := strings.Cut(v, " "); ok {
			masked.Set(name, scheme+" "+MaskAccessToken(token))
			continue
		}
		masked.Set(name, MaskAccessToken(v))
	}
	return masked
}
