package bus

import (
	"errors"
	"fmt"
)

// Address identifies a register of the device.
type Address uint64

// The register map agreed between the harness and the device.
const (
	AddrStatus Address = 2
	AddrData   Address = 3
	AddrInputA Address = 4
	AddrInputB Address = 5
)

// Channel is one stimulus input of the device.
type Channel struct {
	Name  string
	Addr  Address
	Width int
}

// Bins returns every legal value of the channel.
func (c Channel) Bins() []uint64 {
	n := uint64(1) << c.Width
	bins := make([]uint64, 0, n)
	for v := uint64(0); v < n; v++ {
		bins = append(bins, v)
	}

	return bins
}

// RegisterMap lists the input channels and the output register pair.
type RegisterMap struct {
	Inputs []Channel
	Status Address
	Data   Address
}

// DefaultRegisterMap returns the two 1-bit input channels a and b and the
// status/data output pair.
func DefaultRegisterMap() RegisterMap {
	return RegisterMap{
		Inputs: []Channel{
			{Name: "a", Addr: AddrInputA, Width: 1},
			{Name: "b", Addr: AddrInputB, Width: 1},
		},
		Status: AddrStatus,
		Data:   AddrData,
	}
}

// Input returns the index in Inputs of the channel mapped at addr.
func (m RegisterMap) Input(addr Address) (int, bool) {
	for i, c := range m.Inputs {
		if c.Addr == addr {
			return i, true
		}
	}

	return 0, false
}

// Validate checks that the map has inputs and that no two registers share
// an address.
func (m RegisterMap) Validate() error {
	if len(m.Inputs) == 0 {
		return errors.New("register map has no input channel")
	}

	seen := map[Address]string{
		m.Status: "status",
	}

	if _, dup := seen[m.Data]; dup {
		return fmt.Errorf("data register overlaps status at %d", m.Data)
	}
	seen[m.Data] = "data"

	for _, c := range m.Inputs {
		if c.Width <= 0 {
			return fmt.Errorf("channel %s has width %d", c.Name, c.Width)
		}

		if other, dup := seen[c.Addr]; dup {
			return fmt.Errorf("channel %s overlaps %s at %d",
				c.Name, other, c.Addr)
		}
		seen[c.Addr] = c.Name
	}

	return nil
}

// ValidateWidths checks that every register is addressable with addrWidth
// bits and that every channel fits in dataWidth bits.
func (m RegisterMap) ValidateWidths(addrWidth, dataWidth int) error {
	limit := uint64(1) << addrWidth

	type register struct {
		name string
		addr Address
	}

	regs := []register{{"status", m.Status}, {"data", m.Data}}
	for _, c := range m.Inputs {
		regs = append(regs, register{c.Name, c.Addr})
	}

	for _, r := range regs {
		if uint64(r.addr) >= limit {
			return fmt.Errorf("register %s at %d is beyond the %d-bit address bus",
				r.name, r.addr, addrWidth)
		}
	}

	for _, c := range m.Inputs {
		if c.Width > dataWidth {
			return fmt.Errorf("channel %s is %d bits wide, data bus has %d",
				c.Name, c.Width, dataWidth)
		}
	}

	return nil
}
