// Package eventstream publishes recorded chat turns to an event stream
// backend for downstream consumers (analytics, alerting).
package eventstream

import (
	"time"

	"github.com/d-wern/stella-relay/pkg/transcript"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnRecorded is emitted after a chat turn is recorded.
	EventTypeTurnRecorded = "stella.turn.recorded"
)

// TurnRecordedEvent is a transport-neutral event payload for a recorded turn.
type TurnRecordedEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	Turn          transcript.Turn `json:"turn"`
}
