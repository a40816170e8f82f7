package kernel

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/regbench/bus"
)

// EdgeListener is a process that samples the bus on every rising edge, such
// as a device model.
type EdgeListener interface {
	OnRisingEdge(now Time)
}

// Clock toggles a signal with a fixed period. Listeners observe a rising
// edge before any task waiting on it resumes.
type Clock struct {
	k      *Kernel
	signal *bus.Signal
	half   Time

	started   bool
	cycles    uint64
	listeners []EdgeListener
	rising    waitList
	falling   waitList
}

// NewClock creates a clock that drives signal. The period must be even.
func NewClock(k *Kernel, signal *bus.Signal, period Time) *Clock {
	if period < 2 || period%2 != 0 {
		panic(fmt.Sprintf("invalid clock period %s", period))
	}

	return &Clock{
		k:      k,
		signal: signal,
		half:   period / 2,
	}
}

// Period returns the clock period.
func (c *Clock) Period() Time {
	return 2 * c.half
}

// Cycles returns the number of rising edges so far.
func (c *Clock) Cycles() uint64 {
	return c.cycles
}

// Started reports whether Start has been called.
func (c *Clock) Started() bool {
	return c.started
}

// AddListener registers a process called on every rising edge.
func (c *Clock) AddListener(l EdgeListener) {
	c.listeners = append(c.listeners, l)
}

// Start drives the signal low and schedules the first rising edge half a
// period later. The clock cannot be restarted.
func (c *Clock) Start() {
	if c.started {
		return
	}

	c.started = true
	c.signal.Set(0)
	c.schedule(c.k.now + c.half)
}

// RisingEdge fires on the next rising edge.
func (c *Clock) RisingEdge() Trigger {
	return edgeTrigger{list: &c.rising}
}

// FallingEdge fires on the next falling edge.
func (c *Clock) FallingEdge() Trigger {
	return edgeTrigger{list: &c.falling}
}

type toggleEvent struct {
	*sim.EventBase

	at Time
}

func (c *Clock) schedule(at Time) {
	c.k.engine.Schedule(&toggleEvent{
		EventBase: sim.NewEventBase(at.VTime(), c),
		at:        at,
	})
}

// Handle toggles the clock.
func (c *Clock) Handle(e sim.Event) error {
	evt, ok := e.(*toggleEvent)
	if !ok {
		panic(fmt.Sprintf("clock cannot handle event of type %T", e))
	}

	if c.k.stopped {
		return nil
	}

	c.k.advance(evt.at)
	c.k.checkContext()

	if c.k.stopped {
		return nil
	}

	if c.signal.Bool() {
		c.signal.Set(0)
		c.resumeAll(&c.falling)
	} else {
		c.signal.Set(1)
		c.cycles++

		for _, l := range c.listeners {
			l.OnRisingEdge(evt.at)
		}

		c.resumeAll(&c.rising)
	}

	if !c.k.stopped {
		c.schedule(evt.at + c.half)
	}

	return nil
}

func (c *Clock) resumeAll(l *waitList) {
	for _, w := range l.take() {
		c.k.wake(w.task, w.gen)
	}
}

type edgeTrigger struct {
	list *waitList
}

func (e edgeTrigger) prime(t *Task) {
	e.list.add(t)
}
