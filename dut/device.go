// Package dut provides a behavioral model of the register-mapped device the
// harness verifies. It only honors the boundary protocol: inputs are written
// to their channel registers, results are polled through the status register
// and dequeued by reading the data register.
package dut

import (
	"github.com/sarchlab/regbench/bus"
	"github.com/sarchlab/regbench/kernel"
)

// Function combines one value from every input channel into a result.
type Function func(values []uint64) uint64

// Or is the logical OR of all inputs.
func Or(values []uint64) uint64 {
	var r uint64
	for _, v := range values {
		r |= v
	}

	return r
}

type fifo struct {
	items []uint64
	depth int
}

func (f *fifo) empty() bool { return len(f.items) == 0 }
func (f *fifo) full() bool  { return len(f.items) >= f.depth }

func (f *fifo) enq(v uint64) {
	f.items = append(f.items, v)
}

func (f *fifo) deq() uint64 {
	v := f.items[0]
	f.items = f.items[1:]

	return v
}

func (f *fifo) clear() {
	f.items = nil
}

// OrDevice samples the bus on every rising edge. Reset is active low and
// synchronous.
type OrDevice struct {
	name string
	bus  *bus.Bus
	regs bus.RegisterMap
	fn   Function

	inputs []*fifo
	output *fifo

	cycle   uint64
	dropped uint64
	results uint64
}

// Name returns the name of the device.
func (d *OrDevice) Name() string {
	return d.name
}

// Dropped returns how many writes were lost to a full input FIFO.
func (d *OrDevice) Dropped() uint64 {
	return d.dropped
}

// Results returns how many results the device has computed.
func (d *OrDevice) Results() uint64 {
	return d.results
}

// Pending returns the number of results waiting to be read.
func (d *OrDevice) Pending() int {
	return len(d.output.items)
}

// Preload pushes results into the output FIFO, as if left over from earlier
// activity.
func (d *OrDevice) Preload(values ...uint64) {
	for _, v := range values {
		if d.output.full() {
			return
		}
		d.output.enq(v)
	}
}

// OnRisingEdge runs one clock cycle of the device.
func (d *OrDevice) OnRisingEdge(now kernel.Time) {
	d.cycle++

	if !d.bus.RstN.Bool() {
		d.reset(now)
		return
	}

	d.serveRead()
	d.compute(now)
	d.acceptWrite(now)
}

func (d *OrDevice) reset(now kernel.Time) {
	for _, in := range d.inputs {
		in.clear()
	}
	d.output.clear()
	d.bus.ReadData.Set(0)

	kernel.Trace("Device",
		"Behavior", "Reset",
		"Name", d.name,
		"Time", now.String(),
	)
}

func (d *OrDevice) serveRead() {
	if !d.bus.ReadEn.Bool() {
		return
	}

	switch bus.Address(d.bus.ReadAddress.Value()) {
	case d.regs.Status:
		if d.output.empty() {
			d.bus.ReadData.Set(0)
		} else {
			d.bus.ReadData.Set(1)
		}
	case d.regs.Data:
		if d.output.empty() {
			d.bus.ReadData.Set(0)
			return
		}
		d.bus.ReadData.Set(d.output.deq())
	default:
		d.bus.ReadData.Set(0)
	}
}

func (d *OrDevice) compute(now kernel.Time) {
	if d.output.full() {
		return
	}

	for _, in := range d.inputs {
		if in.empty() {
			return
		}
	}

	values := make([]uint64, len(d.inputs))
	for i, in := range d.inputs {
		values[i] = in.deq()
	}

	r := d.fn(values)
	d.output.enq(r)
	d.results++

	kernel.Trace("Device",
		"Behavior", "Compute",
		"Name", d.name,
		"Time", now.String(),
		"Inputs", values,
		"Result", r,
	)
}

func (d *OrDevice) acceptWrite(now kernel.Time) {
	if !d.bus.WriteEn.Bool() {
		return
	}

	i, ok := d.regs.Input(bus.Address(d.bus.WriteAddress.Value()))
	if !ok {
		return
	}

	if d.inputs[i].full() {
		d.dropped++
		kernel.Trace("Device",
			"Behavior", "DropWrite",
			"Name", d.name,
			"Time", now.String(),
			"Channel", d.regs.Inputs[i].Name,
		)

		return
	}

	d.inputs[i].enq(d.bus.WriteData.Value())
}
