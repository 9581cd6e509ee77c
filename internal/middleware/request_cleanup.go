package middleware

import (
	"io"
	"net/http"
)

// DefaultMaxRequestBodyBytes fits a spreadsheet upload of a few thousand weekly records.
const DefaultMaxRequestBodyBytes = 8 << 20

// LimitAndDrainRequest caps the request body size, and after the handler
// returns drains and closes whatever is left so the connection can be reused.
func LimitAndDrainRequest(maxBodyBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
