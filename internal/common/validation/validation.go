package validation

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// IsValidGUID reports whether s is a GUID in the 8-4-4-4-12 form.
// Braced and urn:uuid: forms accepted by uuid.Parse are rejected.
func IsValidGUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// ValidateGUID validates that a string matches standard GUID format (8-4-4-4-12).
// Example: 12345678-1234-1234-1234-123456789012
func ValidateGUID(guid, fieldName string) error {
	guid = strings.TrimSpace(guid)
	if guid == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if !IsValidGUID(guid) {
		return fmt.Errorf("%s should be a GUID (format: 12345678-1234-1234-1234-123456789012)", fieldName)
	}
	return nil
}

// IsValidSharePointURL reports whether u looks like a SharePoint Online URL:
// an https URL whose host contains ".sharepoint.".
func IsValidSharePointURL(u string) bool {
	if u == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(u), "https://") && strings.Contains(u, ".sharepoint.")
}

// ValidateSharePointURL returns the standard error for a URL that is not a SharePoint Online URL.
func ValidateSharePointURL(u string) error {
	if !IsValidSharePointURL(u) {
		return fmt.Errorf("%s is not a valid SharePoint Online site URL", u)
	}
	return nil
}

// ValidateOneOf checks value against a fixed set of allowed values.
// When caseSensitive is false the comparison ignores case.
func ValidateOneOf(value string, allowed []string, caseSensitive bool, fieldName string) error {
	for _, a := range allowed {
		if value == a || (!caseSensitive && strings.EqualFold(value, a)) {
			return nil
		}
	}
	return fmt.Errorf("%s is not a valid %s. Allowed values are %s", value, fieldName, strings.Join(allowed, "|"))
}

// ValidateFilePath validates and sanitizes a file path for security and usability.
// Checks for path traversal attempts, verifies file exists and is accessible.
func ValidateFilePath(path, fieldName string) error {
	if path == "" {
		return nil // Empty is allowed for optional fields
	}

	cleanPath := filepath.Clean(path)

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("%s: invalid path: %w", fieldName, err)
	}

	// Relative paths must stay inside the working directory tree.
	if !filepath.IsAbs(path) && strings.Contains(cleanPath, "..") {
		return fmt.Errorf("%s: path contains directory traversal (..) which is not allowed", fieldName)
	}

	fileInfo, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: file not found: %s", fieldName, path)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("%s: permission denied: %s", fieldName, path)
		}
		return fmt.Errorf("%s: cannot access file: %w", fieldName, err)
	}

	if !fileInfo.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file (is it a directory?): %s", fieldName, path)
	}

	return nil
}

// ValidateProxyURL validates an HTTP(S) or SOCKS5 proxy URL.
// An empty URL means no proxy and is accepted.
func ValidateProxyURL(proxyURL string) error {
	if proxyURL == "" {
		return nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("invalid proxy URL format: %w", err)
	}

	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return fmt.Errorf("unsupported proxy scheme %q (use http, https or socks5)", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("proxy URL must include hostname")
	}
	if err := validateHostname(host); err != nil {
		return fmt.Errorf("invalid proxy hostname: %w", err)
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid proxy port %q (must be between 1 and 65535)", p)
		}
	}

	if u.User != nil && u.User.Username() == "" {
		return fmt.Errorf("proxy URL has credentials with an empty username")
	}

	return nil
}

// validateHostname accepts DNS names, IPv4 addresses, and IPv6 addresses.
func validateHostname(hostname string) error {
	if net.ParseIP(hostname) != nil {
		return nil
	}

	if len(hostname) > 253 {
		return fmt.Errorf("hostname too long (max 253 characters)")
	}

	for _, ch := range hostname {
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') || ch == '.' || ch == '-') {
			return fmt.Errorf("hostname contains invalid character: %c", ch)
		}
	}

	if strings.HasPrefix(hostname, "-") || strings.HasSuffix(hostname, "-") ||
		strings.HasPrefix(hostname, ".") || strings.HasSuffix(hostname, ".") {
		return fmt.Errorf("hostname cannot start or end with hyphen or dot")
	}

	return nil
}
