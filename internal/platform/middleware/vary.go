package middleware

import (
	"net/http"
	"strings"
)

// Vary adds values to the Vary header of every response.
func Vary(values ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			AddVary(w.Header(), values...)
			next.ServeHTTP(w, r)
		})
	}
}

// AddVary appends values to h's Vary header, skipping tokens already present in
// any existing Vary line. Tokens compare case-insensitively.
func AddVary(h http.Header, values ...string) {
	if len(values) == 0 {
		return
	}
	present := make(map[string]bool)
	for _, line := range h.Values("Vary") {
		for token := range strings.SplitSeq(line, ",") {
			present[strings.ToLower(strings.TrimSpace(token))] = true
		}
	}
	for _, v := range values {
		if key := strings.ToLower(v); !present[key] {
			present[key] = true
			h.Add("Vary", v)
		}
	}
}
