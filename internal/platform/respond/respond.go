// Package respond renders RFC 9457 problem details for responses produced
// outside huma operations: unrouted paths, unrouted methods and panics.
package respond

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"

	"github.com/janisto/gochat-api/internal/platform/logging"
	"github.com/janisto/gochat-api/internal/platform/middleware"
)

const (
	contentTypeProblemJSON = "application/problem+json"
	contentTypeProblemCBOR = "application/problem+cbor"
	errorSchemaPath        = "/schemas/ErrorModel.json"

	msgNotFound       = "resource not found"
	msgInternalServer = "internal server error"
)

// problem is huma.ErrorModel with the JSON Schema link huma adds to its own
// error bodies.
type problem struct {
	Schema string `json:"$schema,omitempty"`
	huma.ErrorModel
}

// NotFoundHandler answers unrouted paths with a 404 problem.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, msgNotFound)
	}
}

// MethodNotAllowedHandler answers unrouted methods with a 405 problem and an
// Allow header listing the methods the path does serve.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if allow := middleware.AllowedMethods(r); len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
		}
		writeProblem(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", r.Method))
	}
}

// Recoverer turns panics into a 500 problem. http.ErrAbortHandler is re-panicked
// so net/http can abort the connection. Nothing is written when the handler
// already started its response.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				logging.LogError(r.Context(), "panic recovered", panicError(rec),
					zap.ByteString("stack", debug.Stack()),
				)
				if rw.wroteHeader {
					return
				}
				writeProblem(rw, r, http.StatusInternalServerError, msgInternalServer)
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

// responseWriter records whether the response has started.
type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("%v", rec)
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	logProblem(r, status, detail)

	schema := schemaURL(r)
	body := problem{
		Schema: schema,
		ErrorModel: huma.ErrorModel{
			Title:  http.StatusText(status),
			Status: status,
			Detail: detail,
		},
	}

	contentType := contentTypeProblemJSON
	var (
		data []byte
		err  error
	)
	if selectFormat(r.Header.Get("Accept")) {
		contentType = contentTypeProblemCBOR
		data, err = cbor.Marshal(body)
	} else {
		data, err = marshalJSON(body)
	}
	if err != nil {
		logging.LogError(r.Context(), "failed to encode problem", err, zap.Int("status", status))
		http.Error(w, http.StatusText(status), status)
		return
	}

	h := w.Header()
	middleware.AddVary(h, "Origin", "Accept")
	h.Set("Content-Type", contentType)
	h.Set("Link", "<"+schema+">; rel=\"describedBy\"")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func logProblem(r *http.Request, status int, detail string) {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if status >= http.StatusInternalServerError {
		logging.LogError(r.Context(), detail, nil, fields...)
		return
	}
	logging.LogWarn(r.Context(), detail, fields...)
}

func schemaURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + errorSchemaPath
}
