// Package security holds the small HTTP hardening middlewares the API
// runs with even on a closed station network.
package security

import (
	"net/http"
)

// DefaultMaxBody caps request payloads. Weigh-in and settlement bodies
// are a few hundred bytes, so anything larger is a misbehaving client.
const DefaultMaxBody int64 = 64 << 10

// BodyLimit enforces a maximum request payload size.
type BodyLimit struct {
	Max int64
}

// Middleware truncates request bodies at the configured limit. Handlers
// decoding a truncated body surface the usual bad-request error.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	max := b.Max
	if max <= 0 {
		max = DefaultMaxBody
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > max {
			http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, max)
		}
		next.ServeHTTP(w, r)
	})
}
