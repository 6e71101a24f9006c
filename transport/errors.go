package transport

import "fmt"

// IOError reports an I/O failure during one exchange, with the phase the
// exchange had reached when it failed.
type IOError struct {
	// Op names the failing phase: "dial", "write" or "read".
	Op string

	// ResponsePhase is true when the request had already been written to
	// the wire, meaning the server may have partially processed it.
	ResponsePhase bool

	// Err is the underlying failure.
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
