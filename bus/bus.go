// Package bus defines the register interface shared by the harness and the
// device under test.
package bus

// Bus is the set of signals of the register interface. Drivers own the
// write half, the monitor owns the read request, and the device owns
// ReadData.
type Bus struct {
	Name string

	Clk  *Signal
	RstN *Signal

	WriteEn      *Signal
	WriteAddress *Signal
	WriteData    *Signal

	ReadEn      *Signal
	ReadAddress *Signal
	ReadData    *Signal
}

// Signals returns every signal of the bus.
func (b *Bus) Signals() []*Signal {
	return []*Signal{
		b.Clk, b.RstN,
		b.WriteEn, b.WriteAddress, b.WriteData,
		b.ReadEn, b.ReadAddress, b.ReadData,
	}
}

// Idle deasserts both strobes.
func (b *Bus) Idle() {
	b.WriteEn.Set(0)
	b.ReadEn.Set(0)
}

// Builder creates buses.
type Builder struct {
	addressWidth int
	dataWidth    int
}

// MakeBuilder returns a builder with a 3-bit address and a 1-bit data path.
func MakeBuilder() Builder {
	return Builder{
		addressWidth: 3,
		dataWidth:    1,
	}
}

// WithAddressWidth sets the width of both address signals.
func (b Builder) WithAddressWidth(width int) Builder {
	b.addressWidth = width
	return b
}

// WithDataWidth sets the width of both data signals.
func (b Builder) WithDataWidth(width int) Builder {
	b.dataWidth = width
	return b
}

// Build creates a bus. Signal names follow the device port names.
func (b Builder) Build(name string) *Bus {
	return &Bus{
		Name:         name,
		Clk:          NewSignal(name+".CLK", 1),
		RstN:         NewSignal(name+".RST_N", 1),
		WriteEn:      NewSignal(name+".write_en", 1),
		WriteAddress: NewSignal(name+".write_address", b.addressWidth),
		WriteData:    NewSignal(name+".write_data", b.dataWidth),
		ReadEn:       NewSignal(name+".read_en", 1),
		ReadAddress:  NewSignal(name+".read_address", b.addressWidth),
		ReadData:     NewSignal(name+".read_data", b.dataWidth),
	}
}
