package relay

import "time"

// Config is the relay server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g. ":3100").
	ListenAddr string

	// BackendURL is the Stella backend base URL.
	BackendURL string

	// ChatTimeout bounds non-streaming backend round trips.
	ChatTimeout time.Duration

	// StreamTimeout bounds an entire streaming session end to end.
	StreamTimeout time.Duration

	// TraceTimeout bounds the trace proxy round trip.
	TraceTimeout time.Duration

	// TypingDelay is the pause between words of the failure-path
	// "typing" reveal. Zero means no pause.
	TypingDelay time.Duration
}

// withDefaults fills unset timeouts. TypingDelay is left alone: zero is a
// legitimate setting.
func (c Config) withDefaults() Config {
	if c.ChatTimeout <= 0 {
		c.ChatTimeout = 30 * time.Second
	}
	if c.StreamTimeout <= 0 {
		c.StreamTimeout = 5 * time.Minute
	}
	if c.TraceTimeout <= 0 {
		c.TraceTimeout = 30 * time.Second
	}
	return c
}
