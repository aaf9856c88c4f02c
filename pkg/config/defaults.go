package config

import "time"

// NewDefaultConfig returns the configuration defaults. This is the single
// source of truth for default values; viper defaults are registered from it.
func NewDefaultConfig() *Config {
	return &Config{
		Relay: RelayConfig{
			Listen:      ":3100",
			TypingDelay: 50 * time.Millisecond,
		},
		Backend: BackendConfig{
			URL:           "http://localhost:8000",
			ChatTimeout:   30 * time.Second,
			StreamTimeout: 5 * time.Minute,
			TraceTimeout:  30 * time.Second,
		},
		Transcript: TranscriptConfig{
			SQLitePath: "",
		},
		EventStream: EventStreamConfig{
			Brokers: nil,
			Topic:   "stella.turns",
		},
	}
}
