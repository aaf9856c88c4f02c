package backend

import (
	"errors"
	"fmt"
)

// ErrNoBody indicates the streaming endpoint answered OK without a body.
var ErrNoBody = errors.New("backend stream has no body")

// StatusError is a non-OK HTTP status from the backend. It is the
// distinguishable connector-level failure that routes the streaming path
// into the error simulator.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Body)
}
