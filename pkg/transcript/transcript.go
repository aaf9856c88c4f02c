// Package transcript defines the relay's turn recording model. Each
// completed chat exchange — streaming or not — is captured as a Turn and
// persisted off the HTTP hot path by the relay's worker pool.
package transcript

import (
	"context"
	"time"
)

// Turn is one recorded chat exchange.
type Turn struct {
	// ID uniquely identifies the recorded turn.
	ID string `json:"id"`

	// SessionID is the conversation thread, as supplied by the client or
	// assigned by the backend. May be empty for one-shot exchanges.
	SessionID string `json:"session_id,omitempty"`

	// Message is the user's message.
	Message string `json:"message"`

	// Response is the assistant's reply. For streaming turns it is
	// assembled best-effort from the forwarded content fragments.
	Response string `json:"response"`

	// Streaming records which relay path served the turn.
	Streaming bool `json:"streaming"`

	// Failed marks turns that ended on the error simulator path.
	Failed bool `json:"failed"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// Store persists and lists recorded turns.
type Store interface {
	// Save records a turn.
	Save(ctx context.Context, turn *Turn) error

	// Recent returns up to limit turns, newest first.
	Recent(ctx context.Context, limit int) ([]*Turn, error)

	// Close releases any underlying resources.
	Close() error
}
