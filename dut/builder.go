package dut

import "github.com/sarchlab/regbench/bus"

// Builder can create OrDevices.
type Builder struct {
	regs  bus.RegisterMap
	fn    Function
	depth int
}

// MakeBuilder returns a builder for the default register map, the OR
// function and FIFOs of depth 4.
func MakeBuilder() Builder {
	return Builder{
		regs:  bus.DefaultRegisterMap(),
		fn:    Or,
		depth: 4,
	}
}

// WithRegisterMap sets the register map the device decodes.
func (b Builder) WithRegisterMap(regs bus.RegisterMap) Builder {
	b.regs = regs
	return b
}

// WithFunction replaces the function the device computes.
func (b Builder) WithFunction(fn Function) Builder {
	b.fn = fn
	return b
}

// WithFIFODepth sets the depth of every input FIFO and of the output FIFO.
func (b Builder) WithFIFODepth(depth int) Builder {
	if depth <= 0 {
		panic("FIFO depth must be positive")
	}

	b.depth = depth
	return b
}

// Build creates a device that samples sigs.
func (b Builder) Build(name string, sigs *bus.Bus) *OrDevice {
	d := &OrDevice{
		name:   name,
		bus:    sigs,
		regs:   b.regs,
		fn:     b.fn,
		output: &fifo{depth: b.depth},
	}

	for range b.regs.Inputs {
		d.inputs = append(d.inputs, &fifo{depth: b.depth})
	}

	return d
}
