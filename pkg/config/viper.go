package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It registers defaults from NewDefaultConfig(), reads an optional
// config.toml from configDir (the working directory when empty), and binds
// environment variables with the STELLA_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (bound by the command layer)
//  2. Environment variables (STELLA_BACKEND_URL, STELLA_RELAY_LISTEN, ...)
//  3. config.toml values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if configDir == "" {
		configDir = "."
	}
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("STELLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The deployment environment historically sets a bare BACKEND_URL.
	if err := v.BindEnv("backend.url", "STELLA_BACKEND_URL", "BACKEND_URL"); err != nil {
		return nil, fmt.Errorf("binding backend url env: %w", err)
	}

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("relay.listen", d.Relay.Listen)
	v.SetDefault("relay.typing_delay", d.Relay.TypingDelay)

	v.SetDefault("backend.url", d.Backend.URL)
	v.SetDefault("backend.chat_timeout", d.Backend.ChatTimeout)
	v.SetDefault("backend.stream_timeout", d.Backend.StreamTimeout)
	v.SetDefault("backend.trace_timeout", d.Backend.TraceTimeout)

	v.SetDefault("transcript.sqlite_path", d.Transcript.SQLitePath)

	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}

// FromViper materializes a Config from the viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Relay: RelayConfig{
			Listen:      v.GetString("relay.listen"),
			TypingDelay: v.GetDuration("relay.typing_delay"),
		},
		Backend: BackendConfig{
			URL:           v.GetString("backend.url"),
			ChatTimeout:   v.GetDuration("backend.chat_timeout"),
			StreamTimeout: v.GetDuration("backend.stream_timeout"),
			TraceTimeout:  v.GetDuration("backend.trace_timeout"),
		},
		Transcript: TranscriptConfig{
			SQLitePath: v.GetString("transcript.sqlite_path"),
		},
		EventStream: EventStreamConfig{
			Brokers: v.GetStringSlice("eventstream.brokers"),
			Topic:   v.GetString("eventstream.topic"),
		},
	}
}
