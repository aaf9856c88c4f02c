// Package sse provides the minimal, purpose-built SSE (Server-Sent Events)
// plumbing used by the stella-relay: a chunk-fed line decoder for the
// upstream byte stream, and a writer that frames outbound events for the
// downstream client.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "encoding/json"

// DefaultEventName is the event name written when an Event does not set one.
// Per the SSE spec, unnamed events dispatch as "message" on the client.
const DefaultEventName = "message"

// Event is a single outbound SSE event.
type Event struct {
	// Name is the SSE event name written on the "event:" line.
	// Empty means DefaultEventName.
	Name string

	// Data is the JSON payload written on the "data:" line, verbatim.
	Data json.RawMessage
}
