package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/cors"

	"github.com/janisto/gochat-api/internal/config"
)

const (
	headerOrigin           = "Origin"
	headerRequestMethod    = "Access-Control-Request-Method"
	headerAllowOrigin      = "Access-Control-Allow-Origin"
	headerAllowCredentials = "Access-Control-Allow-Credentials"
	headerAllowMethods     = "Access-Control-Allow-Methods"
	headerAllowHeaders     = "Access-Control-Allow-Headers"
	headerExposeHeaders    = "Access-Control-Expose-Headers"
	headerMaxAge           = "Access-Control-Max-Age"
)

// originPolicy decides which request origins receive CORS headers.
type originPolicy struct {
	any      bool
	echo     bool
	exact    map[string]struct{}
	patterns []originPattern
}

// originPattern matches "scheme://*.suffix" entries.
type originPattern struct {
	prefix string
	suffix string
}

func newOriginPolicy(p config.CORS) originPolicy {
	op := originPolicy{
		any:   p.AnyOrigin(),
		exact: make(map[string]struct{}),
	}
	// Browsers ignore a literal "*" on credentialed responses, so a wildcard
	// policy with credentials echoes the caller's origin instead.
	op.echo = !op.any || p.AllowCredentials
	for _, o := range p.Origins() {
		if i := strings.IndexByte(o, '*'); i >= 0 {
			op.patterns = append(op.patterns, originPattern{prefix: o[:i], suffix: o[i+1:]})
			continue
		}
		op.exact[o] = struct{}{}
	}
	return op
}

func (op originPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if op.any {
		return true
	}
	n, ok := config.NormalizeOrigin(origin)
	if !ok {
		return false
	}
	if _, ok := op.exact[n]; ok {
		return true
	}
	for _, p := range op.patterns {
		if len(n) > len(p.prefix)+len(p.suffix) && strings.HasPrefix(n, p.prefix) && strings.HasSuffix(n, p.suffix) {
			return true
		}
	}
	return false
}

// allowOriginValue is the Access-Control-Allow-Origin value for origin, or ""
// when the origin is not allowed.
func (op originPolicy) allowOriginValue(origin string) string {
	if !op.allows(origin) {
		return ""
	}
	if op.echo {
		return origin
	}
	return config.Wildcard
}

func corsOptions(p config.CORS, op originPolicy) cors.Options {
	opts := cors.Options{
		AllowedMethods:   p.Methods(),
		AllowedHeaders:   p.AllowedHeaders,
		ExposedHeaders:   p.ExposedHeaders,
		AllowCredentials: p.AllowCredentials,
		MaxAge:           p.MaxAge,
	}
	if op.echo {
		opts.AllowOriginFunc = func(_ *http.Request, origin string) bool {
			return op.allows(origin)
		}
	} else {
		opts.AllowedOrigins = []string{config.Wildcard}
	}
	return opts
}

// CORS returns the cross-origin policy gate. Register it first so preflight
// requests are answered before any other middleware runs.
//
// Preflights (OPTIONS with Access-Control-Request-Method) are answered by
// go-chi/cors with 200 and never reach the router. A bare OPTIONS request to a
// routed path is answered here with the full policy. All other requests
// get the origin, credential and expose headers and continue unchanged.
func CORS(p config.CORS) func(http.Handler) http.Handler {
	op := newOriginPolicy(p)
	c := cors.New(corsOptions(p, op))

	allowMethods := strings.Join(p.Methods(), ", ")
	allowHeaders := config.Wildcard
	if !p.AnyHeader() {
		allowHeaders = strings.Join(p.AllowedHeaders, ", ")
	}
	exposeHeaders := strings.Join(p.ExposedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		gated := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodOptions || r.Header.Get(headerRequestMethod) != "" {
				gated.ServeHTTP(w, r)
				return
			}
			routed := AllowedMethods(r)
			if len(routed) == 0 {
				gated.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			AddVary(h, headerOrigin)
			h.Set("Allow", strings.Join(append(routed, http.MethodOptions), ", "))
			if v := op.allowOriginValue(r.Header.Get(headerOrigin)); v != "" {
				h.Set(headerAllowOrigin, v)
				if p.AllowCredentials {
					h.Set(headerAllowCredentials, "true")
				}
				h.Set(headerAllowMethods, allowMethods)
				if allowHeaders != "" {
					h.Set(headerAllowHeaders, allowHeaders)
				}
				if exposeHeaders != "" {
					h.Set(headerExposeHeaders, exposeHeaders)
				}
				if p.MaxAge > 0 {
					h.Set(headerMaxAge, strconv.Itoa(p.MaxAge))
				}
			}
			w.WriteHeader(http.StatusOK)
		})
	}
}
