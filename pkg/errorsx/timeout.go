package errorsx

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is the sentinel matched by errors.Is for every deadline
// failure produced by this module's blocking operations.
var ErrTimeout = errors.New("timed out")

// TimeoutError reports that a blocking operation exceeded its deadline. It
// carries the operation name and the duration that was waited so test
// failures read well without extra context.
type TimeoutError struct {
	Op   string
	Wait time.Duration
}

// NewTimeout builds a TimeoutError for the named operation.
func NewTimeout(op string, wait time.Duration) *TimeoutError {
	return &TimeoutError{Op: op, Wait: wait}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.Wait)
}

// Timeout reports true so the error satisfies the net.Error style
// interface checks some assertion helpers use.
func (e *TimeoutError) Timeout() bool { return true }

// Is matches ErrTimeout, allowing errors.Is(err, errorsx.ErrTimeout)
// without knowing the concrete type.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
