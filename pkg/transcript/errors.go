package transcript

import "errors"

// ErrNilTurn indicates a nil turn was handed to a store.
var ErrNilTurn = errors.New("nil transcript turn")
