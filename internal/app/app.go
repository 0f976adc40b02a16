// Package app assembles the GoChat API HTTP application.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/gochat-api/internal/config"
	"github.com/janisto/gochat-api/internal/http/routes"
	applog "github.com/janisto/gochat-api/internal/platform/logging"
	appmiddleware "github.com/janisto/gochat-api/internal/platform/middleware"
	"github.com/janisto/gochat-api/internal/platform/respond"
)

const (
	docsPath        = "/docs"
	maxRequestBody  = 1 << 20 // 1 MB
	shutdownTimeout = 10 * time.Second
)

// App owns the router, the huma API and the configuration they were built from.
type App struct {
	cfg    config.Config
	router chi.Router
	api    huma.API
}

// New builds the application. The CORS gate is registered before any other
// middleware so it covers every route, including the 404 and 405 handlers.
func New(cfg config.Config) *App {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	router.Use(
		appmiddleware.CORS(cfg.CORS),
		appmiddleware.RequestID(),
		// RealIP trusts X-Real-IP and X-Forwarded-For. Only deploy behind a
		// proxy that overwrites them.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(maxRequestBody),
		applog.RequestLogger(),
		applog.AccessLogger(),
		appmiddleware.Security(docsPath),
		appmiddleware.Vary("Accept"),
		respond.Recoverer(),
	)

	hcfg := huma.DefaultConfig(config.Title, cfg.Version)
	hcfg.DocsPath = docsPath
	// No $schema link transformer: response bodies carry only their own fields.
	hcfg.CreateHooks = nil
	api := humachi.New(router, hcfg)

	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation, addCBORContent)

	routes.Register(api)

	return &App{cfg: cfg, router: router, api: api}
}

// addCBORContent documents application/cbor next to every JSON body.
func addCBORContent(_ *huma.OpenAPI, op *huma.Operation) {
	if op.RequestBody != nil && op.RequestBody.Content != nil {
		if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
			op.RequestBody.Content["application/cbor"] = jsonContent
		}
	}
	for _, resp := range op.Responses {
		if resp.Content == nil {
			continue
		}
		if jsonContent, ok := resp.Content["application/json"]; ok {
			resp.Content["application/cbor"] = jsonContent
		}
	}
}

// API exposes the huma API, mainly for OpenAPI inspection.
func (a *App) API() huma.API {
	return a.api
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Server returns an HTTP server for the configured address.
func (a *App) Server() *http.Server {
	return &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.router,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	srv := a.Server()
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	return serve(ctx, srv, ln)
}

// serve runs srv on ln and shuts it down gracefully once ctx is done.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(ctx, "server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	select {
	case err, ok := <-listenErr:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		applog.LogInfo(context.Background(), "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	applog.LogInfo(context.Background(), "server exited")
	return nil
}
