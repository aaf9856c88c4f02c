package sse

import (
	"encoding/json"
	"fmt"
	"io"
)

// Writer frames outbound events onto a destination stream as
//
//	event: <name>\n
//	data: <json>\n
//	\n
//
// The destination is typically the write end of an io.Pipe whose read end
// backs the downstream HTTP response. Writer is a pure sink: it does not
// care whether the relay's translation path or the failure path is driving
// it.
type Writer struct {
	dst io.Writer
}

// NewWriter creates a Writer framing events onto dst.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{dst: dst}
}

// Send writes one event. The payload bytes are written verbatim, which
// preserves pass-through fidelity for upstream JSON.
func (w *Writer) Send(ev Event) error {
	name := ev.Name
	if name == "" {
		name = DefaultEventName
	}

	if _, err := fmt.Fprintf(w.dst, "event: %s\ndata: %s\n\n", name, ev.Data); err != nil {
		return fmt.Errorf("writing sse event: %w", err)
	}

	return nil
}

// SendJSON marshals v and writes it as an event with the given name.
func (w *Writer) SendJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding sse payload: %w", err)
	}

	return w.Send(Event{Name: name, Data: data})
}
