package api

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/regbench/bus"
	"github.com/sarchlab/regbench/kernel"
)

// Sink receives the values the monitor observes.
type Sink interface {
	Put(v uint64)
}

// OutputMonitor polls the status register and, when a result is pending,
// reads it from the data register.
type OutputMonitor struct {
	sim.HookableBase

	name   string
	bus    *bus.Bus
	clock  *kernel.Clock
	status bus.Address
	data   bus.Address
	settle kernel.Time
	idle   kernel.Time
	sink   Sink

	polls    uint64
	observed uint64
}

// Name returns the name of the monitor.
func (m *OutputMonitor) Name() string {
	return m.name
}

// Polls returns the number of status reads so far.
func (m *OutputMonitor) Polls() uint64 {
	return m.polls
}

// Observed returns the number of values forwarded to the sink.
func (m *OutputMonitor) Observed() uint64 {
	return m.observed
}

// Run polls the device until the task is killed.
func (m *OutputMonitor) Run(t *kernel.Task) error {
	for {
		pending, err := m.ReadStatus(t)
		if err != nil {
			return err
		}

		if pending {
			v, err := m.ReadData(t)
			if err != nil {
				return err
			}

			m.observed++
			m.sink.Put(v)
		}

		if err := t.Await(kernel.Timer(m.idle)); err != nil {
			return err
		}
	}
}

// ReadStatus reads the status register and reports whether a result is
// pending.
func (m *OutputMonitor) ReadStatus(t *kernel.Task) (bool, error) {
	m.bus.ReadEn.Set(1)
	m.bus.ReadAddress.Set(uint64(m.status))

	if err := t.Await(m.clock.RisingEdge()); err != nil {
		return false, err
	}

	m.bus.ReadEn.Set(0)

	if err := t.Await(kernel.Timer(m.settle)); err != nil {
		return false, err
	}

	m.polls++
	v := m.bus.ReadData.Value()
	m.completeRead(t, m.status, v)

	return v == 1, nil
}

// ReadData reads the data register. The read dequeues one result on the
// device side.
func (m *OutputMonitor) ReadData(t *kernel.Task) (uint64, error) {
	m.bus.ReadEn.Set(1)
	m.bus.ReadAddress.Set(uint64(m.data))

	if err := t.Await(m.clock.RisingEdge()); err != nil {
		return 0, err
	}

	if err := t.Await(kernel.Timer(m.settle)); err != nil {
		return 0, err
	}

	v := m.bus.ReadData.Value()
	m.bus.ReadEn.Set(0)
	m.completeRead(t, m.data, v)

	return v, nil
}

func (m *OutputMonitor) completeRead(
	t *kernel.Task,
	addr bus.Address,
	v uint64,
) {
	kernel.Trace("Monitor",
		"Behavior", "Read",
		"Name", m.name,
		"Time", t.Now().String(),
		"Addr", addr,
		"Data", v,
	)

	if m.NumHooks() == 0 {
		return
	}

	m.InvokeHook(sim.HookCtx{
		Domain: m,
		Pos:    HookPosRead,
		Item: bus.TransactionBuilder{}.
			WithKind(bus.Read).
			WithChannel(m.name).
			WithAddr(addr).
			WithData(v).
			WithCycle(m.clock.Cycles()).
			Build(),
	})
}
