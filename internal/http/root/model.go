package root

// Message is the greeting returned by GET /.
const Message = "Welcome to GoChat API"

// WelcomeData models the response payload for the root endpoint.
type WelcomeData struct {
	Message string `json:"message" doc:"Welcome message" example:"Welcome to GoChat API"`
}

// Output is the root endpoint response.
type Output struct {
	Body WelcomeData
}
