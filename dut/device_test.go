package dut_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/regbench/bus"
	"github.com/sarchlab/regbench/dut"
)

var _ = Describe("OrDevice", func() {
	var (
		sigs   *bus.Bus
		device *dut.OrDevice
	)

	edge := func() {
		device.OnRisingEdge(0)
	}

	write := func(addr bus.Address, v uint64) {
		sigs.WriteEn.Set(1)
		sigs.WriteAddress.Set(uint64(addr))
		sigs.WriteData.Set(v)
		edge()
		sigs.WriteEn.Set(0)
	}

	read := func(addr bus.Address) uint64 {
		sigs.ReadEn.Set(1)
		sigs.ReadAddress.Set(uint64(addr))
		edge()
		sigs.ReadEn.Set(0)

		return sigs.ReadData.Value()
	}

	BeforeEach(func() {
		sigs = bus.MakeBuilder().Build("DUT")
		sigs.RstN.Set(1)
		device = dut.MakeBuilder().WithFIFODepth(2).Build("Device", sigs)
	})

	It("should report empty before any input", func() {
		Expect(read(bus.AddrStatus)).To(Equal(uint64(0)))
	})

	DescribeTable("should compute the OR of both channels",
		func(a, b, want uint64) {
			write(bus.AddrInputA, a)
			write(bus.AddrInputB, b)
			edge()

			Expect(read(bus.AddrStatus)).To(Equal(uint64(1)))
			Expect(read(bus.AddrData)).To(Equal(want))
			Expect(read(bus.AddrStatus)).To(Equal(uint64(0)))
		},
		Entry("0 | 0", uint64(0), uint64(0), uint64(0)),
		Entry("1 | 0", uint64(1), uint64(0), uint64(1)),
		Entry("0 | 1", uint64(0), uint64(1), uint64(1)),
		Entry("1 | 1", uint64(1), uint64(1), uint64(1)),
	)

	It("should keep results in order", func() {
		for _, in := range [][2]uint64{{0, 0}, {1, 0}} {
			write(bus.AddrInputA, in[0])
			write(bus.AddrInputB, in[1])
		}
		edge()

		Expect(read(bus.AddrData)).To(Equal(uint64(0)))
		Expect(read(bus.AddrData)).To(Equal(uint64(1)))
		Expect(device.Results()).To(Equal(uint64(2)))
	})

	It("should drop writes into a full input FIFO", func() {
		write(bus.AddrInputA, 1)
		write(bus.AddrInputA, 1)
		write(bus.AddrInputA, 1)

		Expect(device.Dropped()).To(Equal(uint64(1)))
	})

	It("should clear every FIFO on reset", func() {
		device.Preload(1, 1)
		write(bus.AddrInputA, 1)
		Expect(device.Pending()).To(Equal(2))

		sigs.RstN.Set(0)
		edge()
		sigs.RstN.Set(1)

		Expect(device.Pending()).To(BeZero())
		Expect(read(bus.AddrStatus)).To(Equal(uint64(0)))

		write(bus.AddrInputB, 1)
		edge()
		Expect(read(bus.AddrStatus)).To(Equal(uint64(0)))
	})

	It("should use a custom function", func() {
		and := func(values []uint64) uint64 { return values[0] & values[1] }
		device = dut.MakeBuilder().WithFunction(and).Build("Device", sigs)

		write(bus.AddrInputA, 1)
		write(bus.AddrInputB, 0)
		edge()

		Expect(read(bus.AddrData)).To(Equal(uint64(0)))
	})

	It("should read zero from an unmapped address", func() {
		device.Preload(1)
		Expect(read(bus.AddrInputA)).To(Equal(uint64(0)))
	})
})
