package middleware

import (
	"net/http"
)

// APIContentSecurityPolicy forbids everything; JSON responses load nothing.
const APIContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// WebContentSecurityPolicy allows the dashboard's own styles and forms only.
const WebContentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; form-action 'self'; frame-ancestors 'none'"

// SecurityHeaders sets common security response headers with the given CSP.
// When hsts is true (serving HTTPS), adds Strict-Transport-Security.
func SecurityHeaders(hsts bool, csp string) func(http.Handler) http.Handler {
	if csp == "" {
		csp = APIContentSecurityPolicy
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Content-Security-Policy", csp)
			if hsts {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
