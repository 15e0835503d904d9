// Package security holds request-level helpers shared by the guards.
package security

import (
	"net"
	"net/http"
	"strings"
)

// ClientIPFromRequest resolves the caller's address. The first entry of
// X-Forwarded-For wins when the header is present (the server is expected to
// sit behind a reverse proxy that sets it); otherwise the connection's
// remote address is used.
func ClientIPFromRequest(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
