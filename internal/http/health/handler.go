package health

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/gochat-api/internal/platform/timeutil"
)

// Register wires GET /health into the provided API router.
func Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, func(context.Context, *struct{}) (*Output, error) {
		return &Output{Body: HealthData{Status: StatusHealthy, Timestamp: timeutil.Now()}}, nil
	})
}
