package middleware

import (
	"context"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxRequestIDLength = 128

// RequestID reuses a well-formed client X-Request-Id or mints a UUIDv4. The ID
// is stored under chi's RequestIDKey and echoed in the response header.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := requestIDFrom(r.Header)
			w.Header().Set(chimiddleware.RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), chimiddleware.RequestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestIDFrom(h http.Header) string {
	if id := h.Get(chimiddleware.RequestIDHeader); acceptableRequestID(id) {
		return id
	}
	return uuid.NewString()
}

// acceptableRequestID limits client IDs to 1-128 bytes of printable ASCII so
// they cannot split or corrupt log lines.
func acceptableRequestID(id string) bool {
	return id != "" && len(id) <= maxRequestIDLength && strings.IndexFunc(id, outsidePrintableASCII) < 0
}

func outsidePrintableASCII(r rune) bool {
	return r < ' ' || r > '~'
}
