// Package config loads the process-wide settings for the GoChat API.
//
// Values come from the environment, optionally seeded from a .env file. The
// resulting Config is a plain value: it is built once at startup and never
// mutated, so request handlers share it without locking.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/janisto/gochat-api/internal/platform/logging"
)

// Wildcard matches every origin, method or header in a CORS list.
const Wildcard = "*"

// Title is the display title of the API, also used as the OpenAPI info title.
const Title = "GoChat API"

// standardMethods is what a wildcard method list expands to.
var standardMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodConnect,
	http.MethodTrace,
}

// Config holds the server settings.
type Config struct {
	Port     string
	LogLevel string
	Version  string
	CORS     CORS
}

// CORS is the cross-origin policy applied to every response.
type CORS struct {
	AllowedOrigins   []string
	AllowCredentials bool
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	MaxAge           int
}

// Default returns the built-in configuration: port 8080 and a fully permissive,
// credentialed CORS policy.
func Default() Config {
	return Config{
		Port:     "8080",
		LogLevel: "info",
		Version:  "dev",
		CORS: CORS{
			AllowedOrigins:   []string{Wildcard},
			AllowCredentials: true,
			AllowedMethods:   []string{Wildcard},
			AllowedHeaders:   []string{Wildcard},
			ExposedHeaders:   []string{"Link", "Location", "X-Request-Id"},
			MaxAge:           300,
		},
	}
}

// Load reads the given env files (".env" when none are named) and then the
// process environment. A missing default .env is not an error; a missing
// explicitly named file is. Variables already set in the environment win over
// file values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	return FromEnv(os.LookupEnv), nil
}

// FromEnv builds a Config from lookup, falling back to Default for unset or
// malformed values.
func FromEnv(lookup func(string) (string, bool)) Config {
	cfg := Default()
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		cfg.Port = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := get("APP_VERSION"); ok {
		cfg.Version = v
	}
	if v, ok := get("CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = SplitList(v)
	}
	if v, ok := get("CORS_ALLOW_CREDENTIALS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CORS.AllowCredentials = b
		}
	}
	if v, ok := get("CORS_ALLOWED_METHODS"); ok {
		cfg.CORS.AllowedMethods = SplitList(v)
	}
	if v, ok := get("CORS_ALLOWED_HEADERS"); ok {
		cfg.CORS.AllowedHeaders = SplitList(v)
	}
	if v, ok := get("CORS_EXPOSED_HEADERS"); ok {
		cfg.CORS.ExposedHeaders = SplitList(v)
	}
	if v, ok := get("CORS_MAX_AGE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CORS.MaxAge = n
		}
	}
	return cfg
}

// SplitList splits a comma separated value, trimming items and dropping empty ones.
func SplitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Addr is the listen address for the configured port.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	port, err := strconv.Atoi(c.Port)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("port %q: %w", c.Port, err))
	case port < 1 || port > 65535:
		errs = append(errs, fmt.Errorf("port %d: out of range", port))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := c.CORS.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("cors: %w", err))
	}
	return errors.Join(errs...)
}

// Validate checks the policy. Empty origin or method lists are rejected
// because the CORS middleware would otherwise fall back to its own defaults.
func (c CORS) Validate() error {
	var errs []error
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("allowed origins must not be empty"))
	}
	for _, o := range c.AllowedOrigins {
		if o == Wildcard {
			continue
		}
		if _, ok := NormalizeOrigin(o); !ok {
			errs = append(errs, fmt.Errorf("invalid origin %q", o))
		}
	}
	if len(c.AllowedMethods) == 0 {
		errs = append(errs, errors.New("allowed methods must not be empty"))
	}
	if c.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("max age %d: must not be negative", c.MaxAge))
	}
	return errors.Join(errs...)
}

// AnyOrigin reports whether the origin list contains the wildcard.
func (c CORS) AnyOrigin() bool {
	return slices.Contains(c.AllowedOrigins, Wildcard)
}

// AnyHeader reports whether the header list contains the wildcard.
func (c CORS) AnyHeader() bool {
	return slices.Contains(c.AllowedHeaders, Wildcard)
}

// Origins returns the explicit origins in normalized form. Invalid entries and
// the wildcard are skipped.
func (c CORS) Origins() []string {
	out := make([]string, 0, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		if n, ok := NormalizeOrigin(o); ok {
			out = append(out, n)
		}
	}
	return out
}

// Methods returns the upper-cased method list with the wildcard expanded to
// every standard HTTP method.
func (c CORS) Methods() []string {
	seen := make(map[string]struct{}, len(standardMethods))
	out := make([]string, 0, len(standardMethods))
	add := func(m string) {
		m = strings.ToUpper(m)
		if _, dup := seen[m]; !dup {
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	for _, m := range c.AllowedMethods {
		if m == Wildcard {
			for _, sm := range standardMethods {
				add(sm)
			}
			continue
		}
		add(m)
	}
	return out
}

// NormalizeOrigin reduces an origin to lower-case "scheme://host[:port]".
// Subdomain patterns such as "https://*.example.com" are kept as is.
func NormalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}
