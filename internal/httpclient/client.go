package httpclient

import (
	"net/http"
	"strings"
	"time"
)

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// FindCookie returns the first cookie with the given name, or nil
func FindCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c != nil && c.Name == name {
			return c
		}
	}
	return nil
}

// CookieHeader renders name/value pairs as a Cookie request header.
// Values are written verbatim; net/http's cookie sanitising would quote or
// drop characters that the portal expects back unchanged.
func CookieHeader(pairs ...[2]string) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p[0]+"="+p[1])
	}
	return strings.Join(parts, "; ")
}
