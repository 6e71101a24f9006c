package gateway

import (
	"errors"
	"strings"

	"github.com/jonwraymond/relaygate/resilience"
	"github.com/jonwraymond/relaygate/transport"
)

// Classify maps a pipeline failure to its outcome status. Isolation
// rejections map to their own statuses; I/O failures split on whether the
// request had already been written when the exchange failed.
func Classify(err error) Status {
	switch {
	case errors.Is(err, resilience.ErrBulkheadFull):
		return StatusPoolSaturated
	case errors.Is(err, resilience.ErrCircuitOpen):
		return StatusCircuitOpen
	case errors.Is(err, resilience.ErrRateLimited):
		return StatusRateLimited
	}

	var ioErr *transport.IOError
	if errors.As(err, &ioErr) {
		if ioErr.ResponsePhase {
			return StatusNonRetryableIO
		}
		return StatusRetryableIO
	}

	// Untyped transports can only be judged by their message. A failure
	// mentioning "read" means the request was already sent, e.g.
	// "Read timed out", versus "Connection refused" where it never left.
	if strings.Contains(strings.ToLower(err.Error()), "read") {
		return StatusNonRetryableIO
	}
	return StatusRetryableIO
}
