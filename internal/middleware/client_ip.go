package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP devuelve la IP del cliente sin puerto.
// Asume chi/middleware.RealIP antes en la cadena (reescribe RemoteAddr desde X-Forwarded-For / X-Real-IP).
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
