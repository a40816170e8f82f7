// Package api defines the harness components that talk to the device through
// the register interface.
package api

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/regbench/bus"
	"github.com/sarchlab/regbench/kernel"
)

// HookPosWrite marks when a driver completes a write transaction.
var HookPosWrite = &sim.HookPos{Name: "Bus Write"}

// HookPosRead marks when the monitor completes a read transaction.
var HookPosRead = &sim.HookPos{Name: "Bus Read"}

// InputDriver writes values into one input channel of the device.
type InputDriver struct {
	sim.HookableBase

	name    string
	channel bus.Channel
	bus     *bus.Bus
	clock   *kernel.Clock
	settle  kernel.Time

	sent uint64
}

// Name returns the name of the driver.
func (d *InputDriver) Name() string {
	return d.name
}

// Channel returns the channel the driver writes.
func (d *InputDriver) Channel() bus.Channel {
	return d.channel
}

// Sent returns the number of completed writes.
func (d *InputDriver) Sent() uint64 {
	return d.sent
}

// Send writes value to the channel register. The write is held until the
// next rising edge, where the device samples it, and the strobe is
// deasserted for the settle interval before Send returns. Callers must not
// overlap Sends of different drivers on the same bus.
func (d *InputDriver) Send(t *kernel.Task, value uint64) error {
	d.bus.WriteEn.Set(1)
	d.bus.WriteAddress.Set(uint64(d.channel.Addr))
	d.bus.WriteData.Set(value)

	if err := t.Await(d.clock.RisingEdge()); err != nil {
		return err
	}

	d.bus.WriteEn.Set(0)
	d.sent++

	txn := bus.TransactionBuilder{}.
		WithKind(bus.Write).
		WithChannel(d.channel.Name).
		WithAddr(d.channel.Addr).
		WithData(value).
		WithCycle(d.clock.Cycles()).
		Build()

	kernel.Trace("Driver",
		"Behavior", "Send",
		"Name", d.name,
		"Time", t.Now().String(),
		"Addr", d.channel.Addr,
		"Data", value,
	)

	if d.NumHooks() > 0 {
		d.InvokeHook(sim.HookCtx{
			Domain: d,
			Pos:    HookPosWrite,
			Item:   txn,
		})
	}

	return t.Await(kernel.Timer(d.settle))
}
