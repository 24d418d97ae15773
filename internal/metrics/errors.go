package metrics

import "fmt"

// ExportError reports a failure to serialize or transmit metrics.
// It is always recoverable: callers log it and carry on.
type ExportError struct {
	// Op is "gather", "encode" or "push".
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("metrics: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("metrics: %s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *ExportError) Unwrap() error { return e.Err }
