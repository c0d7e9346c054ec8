package httpapi

import (
	"net"
	"net/http"
)

// RateLimitKey keys the rate limiter on the caller address. RealIP has already
// replaced RemoteAddr with the forwarded client address when present.
func RateLimitKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
