package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func setProjectIDForTest(t *testing.T, id string) {
	t.Helper()
	orig := cachedProjectID
	cachedProjectID = id
	projectIDOnce = sync.Once{}
	projectIDOnce.Do(func() {})
	t.Cleanup(func() { cachedProjectID = orig })
}

func TestAccessLoggerRecordsRequest(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	access := AccessLogger()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/tea", nil)
	req.Header.Set("Origin", "https://example.com")
	req = req.WithContext(WithLogger(req.Context(), zap.New(core)))
	access.ServeHTTP(httptest.NewRecorder(), req)

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "request completed" {
		t.Fatalf("unexpected message: %s", entries[0].Message)
	}
	fields := fieldMap(entries[0].Context)
	if f := fields["status"]; f.Integer != http.StatusTeapot {
		t.Fatalf("expected status 418, got %+v", f)
	}
	if f := fields["path"]; f.String != "/tea" {
		t.Fatalf("expected path /tea, got %+v", f)
	}
	if f := fields["bytes"]; f.Integer != 3 {
		t.Fatalf("expected 3 bytes, got %+v", f)
	}
	if f := fields["origin"]; f.String != "https://example.com" {
		t.Fatalf("expected origin field, got %+v", f)
	}
	if _, ok := fields["duration"]; !ok {
		t.Fatal("expected duration field")
	}
}

func TestAccessLoggerOmitsOriginForSameOriginRequests(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	access := AccessLogger()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithLogger(req.Context(), zap.New(core)))
	access.ServeHTTP(httptest.NewRecorder(), req)

	if _, ok := fieldMap(recorded.All()[0].Context)["origin"]; ok {
		t.Fatal("did not expect origin field without Origin header")
	}
}

func serveWithRequestLogger(t *testing.T, req *http.Request) []observer.LoggedEntry {
	t.Helper()
	core, recorded := observer.New(zapcore.InfoLevel)
	handler := RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LogInfo(r.Context(), "handled")
	}))
	req = req.WithContext(WithLogger(req.Context(), zap.New(core)))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return recorded.All()
}

func TestRequestLoggerAddsTraceFields(t *testing.T) {
	setProjectIDForTest(t, "test-project")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-3d23d071b5bfd6579171efce907685cb-08f067aa0ba902b7-01")
	req = req.WithContext(context.WithValue(req.Context(), chimiddleware.RequestIDKey, "req-1"))
	entries := serveWithRequestLogger(t, req)

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := fieldMap(entries[0].Context)
	want := "projects/test-project/traces/3d23d071b5bfd6579171efce907685cb"
	if f := fields["logging.googleapis.com/trace"]; f.String != want {
		t.Fatalf("expected trace %q, got %+v", want, f)
	}
	if f := fields["logging.googleapis.com/spanId"]; f.String != "08f067aa0ba902b7" {
		t.Fatalf("unexpected span field %+v", f)
	}
	if f := fields["requestId"]; f.String != "req-1" {
		t.Fatalf("expected requestId req-1, got %+v", f)
	}
}

func TestRequestLoggerWithoutProjectCarriesRequestIDOnly(t *testing.T) {
	setProjectIDForTest(t, "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-3d23d071b5bfd6579171efce907685cb-08f067aa0ba902b7-01")
	req = req.WithContext(context.WithValue(req.Context(), chimiddleware.RequestIDKey, "test-request-id"))
	entries := serveWithRequestLogger(t, req)

	fields := fieldMap(entries[0].Context)
	if _, ok := fields["logging.googleapis.com/trace"]; ok {
		t.Fatal("did not expect trace fields without a project ID")
	}
	if f := fields["requestId"]; f.String != "test-request-id" {
		t.Fatalf("expected requestId field, got %+v", f)
	}
}
