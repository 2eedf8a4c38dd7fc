package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const maxQueryLength = 256

// ValidateQuery validates a free-text provider query such as a company name.
// The query is not normalized; callers cache on the exact string.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only queries
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return New(ErrCodeInvalidQuery, "query cannot be empty")
	}

	if len(q) > maxQueryLength {
		return New(ErrCodeInvalidQuery, "query too long (max %d characters)", maxQueryLength)
	}

	for _, r := range q {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidQuery, "query contains invalid control characters")
		}
	}

	return nil
}

// domainRegex matches a bare host name with at least one dot, e.g. "acme.com".
var domainRegex = regexp.MustCompile(`^(?i)([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)

// ValidateDomain validates a bare domain used for technology lookups.
// Schemes, paths and ports are rejected; pass "acme.com", not "https://acme.com/".
func ValidateDomain(domain string) error {
	if domain == "" {
		return New(ErrCodeInvalidDomain, "domain cannot be empty")
	}
	if len(domain) > 253 {
		return New(ErrCodeInvalidDomain, "domain too long (max 253 characters)")
	}
	if !domainRegex.MatchString(domain) {
		return New(ErrCodeInvalidDomain, "invalid domain: %q", domain)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL parses, has a safe scheme (http or https) and a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must have a host")
	}

	return nil
}
