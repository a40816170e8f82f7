package api

import (
	"github.com/sarchlab/regbench/bus"
	"github.com/sarchlab/regbench/kernel"
)

// DriverBuilder creates InputDrivers.
type DriverBuilder struct {
	bus    *bus.Bus
	clock  *kernel.Clock
	settle kernel.Time
}

// MakeDriverBuilder returns a builder with a 1 ns settle interval.
func MakeDriverBuilder() DriverBuilder {
	return DriverBuilder{
		settle: kernel.NS,
	}
}

// WithBus sets the bus the driver writes.
func (b DriverBuilder) WithBus(sigs *bus.Bus) DriverBuilder {
	b.bus = sigs
	return b
}

// WithClock sets the clock the driver synchronizes to.
func (b DriverBuilder) WithClock(clock *kernel.Clock) DriverBuilder {
	b.clock = clock
	return b
}

// WithSettle sets how long the driver holds the bus idle after a write.
func (b DriverBuilder) WithSettle(settle kernel.Time) DriverBuilder {
	b.settle = settle
	return b
}

// Build creates a driver for the given channel.
func (b DriverBuilder) Build(name string, channel bus.Channel) *InputDriver {
	if b.bus == nil || b.clock == nil {
		panic("driver needs a bus and a clock")
	}

	return &InputDriver{
		name:    name,
		channel: channel,
		bus:     b.bus,
		clock:   b.clock,
		settle:  b.settle,
	}
}

// MonitorBuilder creates OutputMonitors.
type MonitorBuilder struct {
	bus    *bus.Bus
	clock  *kernel.Clock
	regs   bus.RegisterMap
	settle kernel.Time
	idle   kernel.Time
	sink   Sink
}

// MakeMonitorBuilder returns a builder for the default register map with a
// 1 ns settle interval and a 2 ns idle interval.
func MakeMonitorBuilder() MonitorBuilder {
	return MonitorBuilder{
		regs:   bus.DefaultRegisterMap(),
		settle: kernel.NS,
		idle:   2 * kernel.NS,
	}
}

// WithBus sets the bus the monitor reads.
func (b MonitorBuilder) WithBus(sigs *bus.Bus) MonitorBuilder {
	b.bus = sigs
	return b
}

// WithClock sets the clock the monitor synchronizes to.
func (b MonitorBuilder) WithClock(clock *kernel.Clock) MonitorBuilder {
	b.clock = clock
	return b
}

// WithRegisterMap sets the status and data addresses to poll.
func (b MonitorBuilder) WithRegisterMap(regs bus.RegisterMap) MonitorBuilder {
	b.regs = regs
	return b
}

// WithSettle sets the wait between the sampling edge and the read of
// read_data.
func (b MonitorBuilder) WithSettle(settle kernel.Time) MonitorBuilder {
	b.settle = settle
	return b
}

// WithIdle sets the wait between two polls.
func (b MonitorBuilder) WithIdle(idle kernel.Time) MonitorBuilder {
	b.idle = idle
	return b
}

// WithSink sets where observed values go.
func (b MonitorBuilder) WithSink(sink Sink) MonitorBuilder {
	b.sink = sink
	return b
}

// Build creates a monitor.
func (b MonitorBuilder) Build(name string) *OutputMonitor {
	if b.bus == nil || b.clock == nil || b.sink == nil {
		panic("monitor needs a bus, a clock and a sink")
	}

	return &OutputMonitor{
		name:   name,
		bus:    b.bus,
		clock:  b.clock,
		status: b.regs.Status,
		data:   b.regs.Data,
		settle: b.settle,
		idle:   b.idle,
		sink:   b.sink,
	}
}
