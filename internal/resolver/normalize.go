package resolver

import (
	"net"
	"strings"
)

// Request identifies a short-link lookup extracted from an inbound HTTP request.
type Request struct {
	Domain  string
	Key     string
	Inspect bool
}

// Normalize derives (domain, key) from the Host header and path segment.
// Keys are case-insensitive by design, so both sides are lower-cased before
// lookup. A trailing "+" selects inspect mode and is stripped; it is never
// part of the stored key. Returns ok=false when the request is not a
// short-link lookup (no host or no key).
func Normalize(host, rawKey string) (Request, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "www.")

	key := strings.ToLower(strings.Trim(strings.TrimSpace(rawKey), "/"))
	inspect := false
	if strings.HasSuffix(key, "+") {
		inspect = true
		key = strings.TrimSuffix(key, "+")
	}

	if host == "" || key == "" {
		return Request{}, false
	}

	return Request{Domain: host, Key: key, Inspect: inspect}, true
}
