package logging

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger stores a logger in the request context that carries the request ID
// and, when available, Cloud Trace correlation fields. It derives from the logger
// already in the context, or the process logger.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(traceparentHeader)
			projectID := resolveProjectID()
			reqID := chimiddleware.GetReqID(r.Context())
			ctx := WithLogger(r.Context(), loggerWithTrace(LoggerFromContext(r.Context()), header, projectID, reqID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLogger writes one "request completed" entry per request.
// Cross-origin callers are recorded with their Origin so CORS issues can be traced.
func AccessLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			if origin := r.Header.Get("Origin"); origin != "" {
				fields = append(fields, zap.String("origin", origin))
			}
			if r.RemoteAddr != "" {
				fields = append(fields, zap.String("remoteIp", r.RemoteAddr))
			}
			LoggerFromContext(r.Context()).Info("request completed", fields...)
		})
	}
}
