package bus

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// HookPosSignalChange marks when a signal takes a new value.
var HookPosSignalChange = &sim.HookPos{Name: "Signal Change"}

// Change is the hook item fired when a signal value changes.
type Change struct {
	Signal   *Signal
	Old, New uint64
}

// A Signal is a named line of the register interface that holds a
// bit-vector value. A value set between two clock edges is the value the
// device samples at the next rising edge.
type Signal struct {
	sim.HookableBase

	name  string
	width int
	value uint64
}

// NewSignal creates a signal with the given width in bits.
func NewSignal(name string, width int) *Signal {
	if width <= 0 || width > 64 {
		panic(fmt.Sprintf("signal %s: invalid width %d", name, width))
	}

	return &Signal{
		name:  name,
		width: width,
	}
}

// Name returns the name of the signal.
func (s *Signal) Name() string {
	return s.name
}

// Width returns the number of bits of the signal.
func (s *Signal) Width() int {
	return s.width
}

// Value returns the current value.
func (s *Signal) Value() uint64 {
	return s.value
}

// Bool reports whether the value is non-zero.
func (s *Signal) Bool() bool {
	return s.value != 0
}

// Set drives the signal. Bits above the width are dropped.
func (s *Signal) Set(v uint64) {
	v &= s.mask()
	if v == s.value {
		return
	}

	old := s.value
	s.value = v

	if s.NumHooks() > 0 {
		s.InvokeHook(sim.HookCtx{
			Domain: s,
			Pos:    HookPosSignalChange,
			Item:   Change{Signal: s, Old: old, New: v},
		})
	}
}

func (s *Signal) mask() uint64 {
	if s.width == 64 {
		return ^uint64(0)
	}

	return (uint64(1) << s.width) - 1
}

func (s *Signal) String() string {
	return fmt.Sprintf("%s=%d", s.name, s.value)
}
