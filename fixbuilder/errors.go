package fixbuilder

import "errors"

// ErrInvalidArguments is returned when a required field for a given
// message variant is missing, e.g. StopPx absent for a stop-limit order.
var ErrInvalidArguments = errors.New("fixbuilder: invalid arguments")
