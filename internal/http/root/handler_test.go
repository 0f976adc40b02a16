package root

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	applog "github.com/janisto/gochat-api/internal/platform/logging"
	appmiddleware "github.com/janisto/gochat-api/internal/platform/middleware"
	"github.com/janisto/gochat-api/internal/platform/respond"
)

func newTestRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	cfg := huma.DefaultConfig("RootTest", "test")
	cfg.CreateHooks = nil
	api := humachi.New(router, cfg)
	Register(api)
	return router
}

func TestGetJSON(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "root-get-json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("expected exactly one key, got %v", body)
	}
	if body["message"] != "Welcome to GoChat API" {
		t.Errorf("unexpected message %v", body["message"])
	}
}

func TestGetCBOR(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/cbor")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/cbor" {
		t.Errorf("expected application/cbor, got %s", ct)
	}

	var data WelcomeData
	if err := cbor.Unmarshal(resp.Body.Bytes(), &data); err != nil {
		t.Fatalf("cbor unmarshal: %v", err)
	}
	if data.Message != Message {
		t.Errorf("expected %q, got %q", Message, data.Message)
	}
}

func TestGetIgnoresQueryAndBody(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/?name=ignored", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var data WelcomeData
	if err := json.Unmarshal(resp.Body.Bytes(), &data); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if data.Message != Message {
		t.Errorf("expected %q, got %q", Message, data.Message)
	}
}

func TestGetIsIdempotentUnderConcurrency(t *testing.T) {
	router := newTestRouter()

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	want := first.Body.String()

	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for range 32 {
		wg.Go(func() {
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
			if resp.Code != http.StatusOK || resp.Body.String() != want {
				errs <- resp.Body.String()
			}
		})
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestOperationRegistered(t *testing.T) {
	router := chi.NewRouter()
	api := humachi.New(router, huma.DefaultConfig("RootTest", "test"))
	Register(api)

	op := api.OpenAPI().Paths["/"].Get
	if op == nil {
		t.Fatal("expected GET / in OpenAPI document")
	}
	if op.OperationID != "get-root" {
		t.Errorf("unexpected operation ID %q", op.OperationID)
	}
}
