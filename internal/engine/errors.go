package engine

import "fmt"

// TransportError wraps a failure to establish or use a Transport,
// distinguishing a timeout (the action's deadline elapsed) from any
// other connect failure.
type TransportError struct {
	Timeout bool
	Cause   error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("transport timed out: %v", e.Cause)
	}
	return fmt.Sprintf("transport failed: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }
