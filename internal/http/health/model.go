package health

import "github.com/janisto/gochat-api/internal/platform/timeutil"

// StatusHealthy is the only status the endpoint reports while the process serves.
const StatusHealthy = "healthy"

// HealthData models the response payload for the health endpoint.
type HealthData struct {
	Status    string        `json:"status" doc:"Service status" example:"healthy"`
	Timestamp timeutil.Time `json:"timestamp" doc:"Server time"`
}

// Output is the health endpoint response.
type Output struct {
	Body HealthData
}
