package root

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/gochat-api/internal/platform/logging"
)

// Register wires GET / into the provided API router.
func Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-root",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Welcome message",
		Description: "Returns a fixed welcome message. Clients use it to check that the API is reachable.",
		Tags:        []string{"Root"},
	}, getHandler)
}

func getHandler(ctx context.Context, _ *struct{}) (*Output, error) {
	applog.LogInfo(ctx, "root get", zap.String("path", "/"))
	return &Output{Body: WelcomeData{Message: Message}}, nil
}
