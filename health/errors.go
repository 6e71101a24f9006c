package health

import "errors"

// ErrCheckerNotFound is returned when a named checker is not registered.
var ErrCheckerNotFound = errors.New("health: checker not found")

// ErrCheckTimeout is returned when a check does not complete in time.
var ErrCheckTimeout = errors.New("health: check timed out")
