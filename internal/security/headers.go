package security

import "net/http"

// Headers attaches conservative response headers. The station UI is the
// only intended consumer, so frames and sniffing are always refused.
type Headers struct{}

// Middleware sets the headers on every response.
func (Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
