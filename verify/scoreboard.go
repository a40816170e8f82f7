package verify

import (
	"fmt"

	"github.com/sarchlab/regbench/kernel"
)

// Source hands observed values to the checker, suspending while none is
// available.
type Source interface {
	Get(t *kernel.Task) (uint64, error)
}

// Scoreboard matches observed values against expectations in FIFO order.
type Scoreboard struct {
	name     string
	expected []uint64
	pushed   int
	checked  int
}

// NewScoreboard creates an empty scoreboard.
func NewScoreboard(name string) *Scoreboard {
	return &Scoreboard{name: name}
}

// Name returns the name of the scoreboard.
func (s *Scoreboard) Name() string {
	return s.name
}

// Push queues an expected value.
func (s *Scoreboard) Push(expected uint64) {
	s.expected = append(s.expected, expected)
	s.pushed++
}

// Check compares actual with the oldest expectation and dequeues it.
func (s *Scoreboard) Check(actual uint64) error {
	if len(s.expected) == 0 {
		return fmt.Errorf("%w: %d after %d checked results",
			ErrUnexpectedOutput, actual, s.checked)
	}

	want := s.expected[0]
	s.expected = s.expected[1:]
	index := s.checked
	s.checked++

	if want != actual {
		return &MismatchError{
			Index:    index,
			Expected: want,
			Actual:   actual,
		}
	}

	return nil
}

// Pending returns the number of queued expectations.
func (s *Scoreboard) Pending() int {
	return len(s.expected)
}

// Drained reports whether every expectation has been checked.
func (s *Scoreboard) Drained() bool {
	return len(s.expected) == 0
}

// Checked returns the number of observed values checked.
func (s *Scoreboard) Checked() int {
	return s.checked
}

// Pushed returns the number of expectations queued so far.
func (s *Scoreboard) Pushed() int {
	return s.pushed
}

// Run checks every value the source produces until the task is killed or a
// check fails.
func (s *Scoreboard) Run(t *kernel.Task, source Source) error {
	for {
		v, err := source.Get(t)
		if err != nil {
			return err
		}

		if err := s.Check(v); err != nil {
			return err
		}

		kernel.Trace("Scoreboard",
			"Behavior", "Check",
			"Name", s.name,
			"Time", t.Now().String(),
			"Data", v,
			"Pending", len(s.expected),
		)
	}
}
