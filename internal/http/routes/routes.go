package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/gochat-api/internal/http/health"
	"github.com/janisto/gochat-api/internal/http/root"
)

// Register wires all HTTP routes into the provided API router.
func Register(api huma.API) {
	root.Register(api)
	health.Register(api)
}
