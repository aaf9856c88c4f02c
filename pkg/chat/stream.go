package chat

import "github.com/tidwall/gjson"

// Stream event types the relay itself synthesizes. Upstream events are
// otherwise forwarded with whatever type the backend chose.
const (
	// TypeDone is the terminal event closing every streaming session.
	TypeDone = "done"

	// TypeError tags the word-by-word error reveal on the failure path.
	TypeError = "error"
)

// StreamEvent is the envelope for events the relay synthesizes itself:
// the terminal done event and the failure-path error chunks.
type StreamEvent struct {
	Chunk string `json:"chunk,omitempty"`
	Type  string `json:"type"`
}

// EventType probes an upstream JSON payload for its "type" discriminator.
// Returns an empty string when the payload has none.
func EventType(payload []byte) string {
	return gjson.GetBytes(payload, "type").String()
}

// ContentFragment extracts the displayable text fragment from an upstream
// content-bearing event. The backend is not consistent about the field name
// ("chunk", "content" or "token" depending on the event source), so the
// first non-empty one wins. Non-content events yield an empty string.
func ContentFragment(payload []byte) string {
	switch EventType(payload) {
	case "content", "token":
	default:
		return ""
	}

	for _, field := range []string{"chunk", "content", "token"} {
		if v := gjson.GetBytes(payload, field); v.Exists() && v.String() != "" {
			return v.String()
		}
	}

	return ""
}
