package verify

import (
	"errors"
	"fmt"

	"github.com/sarchlab/regbench/kernel"
)

// ErrUnexpectedOutput reports an observed value with no expectation queued.
var ErrUnexpectedOutput = errors.New("unexpected output")

// MismatchError reports an observed value that differs from the oldest
// expectation.
type MismatchError struct {
	Index    int
	Expected uint64
	Actual   uint64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("result %d: expected %d, got %d",
		e.Index, e.Expected, e.Actual)
}

// DrainTimeoutError reports expectations still queued when the drain phase
// gave up.
type DrainTimeoutError struct {
	Pending int
	Polls   int
	Time    kernel.Time
}

func (e *DrainTimeoutError) Error() string {
	return fmt.Sprintf("%d results still pending after %d polls at %s",
		e.Pending, e.Polls, e.Time)
}

// ResetError reports a device that still has results pending after reset.
type ResetError struct {
	Status uint64
	Time   kernel.Time
}

func (e *ResetError) Error() string {
	return fmt.Sprintf("status is %d after reset at %s", e.Status, e.Time)
}
