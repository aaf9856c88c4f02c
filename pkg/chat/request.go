// Package chat defines the request/response shapes exchanged between the
// portfolio client, the relay and the Stella agent backend.
package chat

// Request is the inbound chat request from the portfolio client.
type Request struct {
	// Message is the user's message. Required, non-empty.
	Message string `json:"message"`

	// SessionID threads the conversation on the backend. Optional; the
	// backend generates one when absent.
	SessionID string `json:"session_id,omitempty"`

	// Stream selects the SSE streaming path. Defaults to false.
	Stream bool `json:"stream,omitempty"`
}

// ErrorResponse is the generic JSON error body for non-streaming failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
