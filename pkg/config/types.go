// Package config holds the stella-relay configuration and its viper wiring.
package config

import "time"

// Config is the full service configuration.
type Config struct {
	Relay       RelayConfig
	Backend     BackendConfig
	Transcript  TranscriptConfig
	EventStream EventStreamConfig
}

// RelayConfig holds the relay HTTP server settings.
type RelayConfig struct {
	// Listen is the address the relay listens on (e.g. ":3100").
	Listen string

	// TypingDelay is the pause between words on the failure-path
	// "typing" reveal.
	TypingDelay time.Duration
}

// BackendConfig holds the Stella backend connection settings.
type BackendConfig struct {
	// URL is the backend base URL.
	URL string

	// ChatTimeout bounds non-streaming round trips.
	ChatTimeout time.Duration

	// StreamTimeout bounds an entire streaming session end to end.
	StreamTimeout time.Duration

	// TraceTimeout bounds the trace proxy round trip.
	TraceTimeout time.Duration
}

// TranscriptConfig holds transcript store settings.
type TranscriptConfig struct {
	// SQLitePath selects the SQLite store; empty means in-memory.
	SQLitePath string
}

// EventStreamConfig holds turn-event publishing settings.
type EventStreamConfig struct {
	// Brokers lists Kafka brokers; empty disables publishing.
	Brokers []string

	// Topic is the Kafka topic for turn events.
	Topic string
}
