package verify_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/regbench/bus"
	"github.com/sarchlab/regbench/config"
	"github.com/sarchlab/regbench/coverage"
	"github.com/sarchlab/regbench/dut"
	"github.com/sarchlab/regbench/kernel"
	"github.com/sarchlab/regbench/verify"
)

type txnCollector struct {
	txns []bus.Transaction
}

func (c *txnCollector) Func(ctx sim.HookCtx) {
	c.txns = append(c.txns, ctx.Item.(bus.Transaction))
}

func (c *txnCollector) data() []uint64 {
	var out []uint64
	for _, t := range c.txns {
		if t.Kind == bus.Read && t.Addr != bus.AddrData {
			continue
		}
		out = append(out, t.Data)
	}

	return out
}

type bench struct {
	k      *kernel.Kernel
	sigs   *bus.Bus
	clock  *kernel.Clock
	device *dut.OrDevice
	tb     *verify.Testbench
}

// newBench wires a device to the harness. devSigs lets a test hand the
// device a modified view of the bus.
func newBench(
	cfg config.Config,
	devices dut.Builder,
	attach bool,
	devSigs func(*bus.Bus) *bus.Bus,
) *bench {
	b := &bench{}
	b.k = kernel.Builder{}.Build("Kernel")
	b.sigs = bus.MakeBuilder().Build("DUT")
	b.clock = kernel.NewClock(b.k, b.sigs.Clk, cfg.ClockPeriod)

	sigs := b.sigs
	if devSigs != nil {
		sigs = devSigs(b.sigs)
	}

	b.device = devices.Build("Device", sigs)
	if attach {
		b.clock.AddListener(b.device)
	}

	b.tb = verify.MakeBuilder().
		WithConfig(cfg).
		WithKernel(b.k).
		WithClock(b.clock).
		WithBus(b.sigs).
		Build("TB")

	return b
}

var _ = Describe("Testbench", func() {
	var cfg config.Config

	BeforeEach(func() {
		cfg = config.Default()
		cfg.ResultPath = GinkgoT().TempDir()
	})

	It("should pass against the OR device", func() {
		b := newBench(cfg, dut.MakeBuilder(), true, nil)

		report, err := b.tb.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Passed).To(BeTrue())
		Expect(report.State).To(Equal(verify.StateDone))
		Expect(report.Stimuli).To(Equal(24))
		Expect(report.Checked).To(Equal(24))
		Expect(report.Pending).To(BeZero())
		Expect(report.RunID).To(Equal(b.tb.RunID().String()))
		Expect(b.tb.Coverage().Closed()).To(BeTrue())
		Expect(b.device.Dropped()).To(BeZero())
	})

	It("should apply the four input combinations in order", func() {
		cfg.RandomTrials = 0
		b := newBench(cfg, dut.MakeBuilder(), true, nil)
		writes := &txnCollector{}
		reads := &txnCollector{}
		for _, d := range b.tb.Drivers() {
			d.AcceptHook(writes)
		}
		b.tb.Monitor().AcceptHook(reads)

		_, err := b.tb.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(writes.data()).To(Equal([]uint64{0, 0, 1, 0, 0, 1, 1, 1}))
		Expect(writes.txns[2].Channel).To(Equal("a"))
		Expect(writes.txns[3].Channel).To(Equal("b"))
		Expect(reads.data()).To(Equal([]uint64{0, 1, 1, 1}))
	})

	It("should close coverage with every cross bin hit", func() {
		cfg.RandomTrials = 0
		b := newBench(cfg, dut.MakeBuilder(), true, nil)

		report, err := b.tb.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Coverage.Coverage).To(Equal(100.0))
		for _, in := range [][]uint64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			Expect(b.tb.Coverage().CrossHits("input.cross.ab", in...)).
				To(Equal(1))
		}
	})

	It("should export coverage into the result path", func() {
		b := newBench(cfg, dut.MakeBuilder(), true, nil)

		report, err := b.tb.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		path := filepath.Join(cfg.ResultPath, "coverage.xml")
		Expect(report.CoveragePath).To(Equal(path))

		s, err := coverage.LoadSnapshot(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Name).To(Equal("TB"))
		Expect(s.Samples).To(Equal(24))
		Expect(s.Items[2].Name).To(Equal("input.cross.ab"))
	})

	It("should write the report file when asked", func() {
		cfg.ReportFile = "report.txt"
		b := newBench(cfg, dut.MakeBuilder(), true, nil)

		_, err := b.tb.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		data, err := os.ReadFile(filepath.Join(cfg.ResultPath, "report.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("PASSED"))
	})

	It("should replay the same stimuli for the same seed", func() {
		run := func() []uint64 {
			b := newBench(cfg, dut.MakeBuilder(), true, nil)
			writes := &txnCollector{}
			for _, d := range b.tb.Drivers() {
				d.AcceptHook(writes)
			}

			_, err := b.tb.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			return writes.data()
		}

		Expect(run()).To(Equal(run()))
	})

	It("should clear results left in the device by reset", func() {
		b := newBench(cfg, dut.MakeBuilder(), true, nil)
		b.device.Preload(1, 1, 1)

		report, err := b.tb.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Passed).To(BeTrue())
	})

	It("should fail when reset leaves results pending", func() {
		stuck := func(sigs *bus.Bus) *bus.Bus {
			view := *sigs
			view.RstN = bus.NewSignal("DUT.RST_N_STUCK", 1)
			view.RstN.Set(1)

			return &view
		}
		b := newBench(cfg, dut.MakeBuilder(), true, stuck)
		b.device.Preload(1)

		report, err := b.tb.Run(context.Background())

		var re *verify.ResetError
		Expect(errors.As(err, &re)).To(BeTrue())
		Expect(report.State).To(Equal(verify.StateReset))
		Expect(report.Passed).To(BeFalse())
		Expect(report.CoveragePath).To(BeEmpty())
	})

	It("should stop at the first mismatch", func() {
		and := func(values []uint64) uint64 {
			return values[0] & values[1]
		}
		b := newBench(cfg, dut.MakeBuilder().WithFunction(and), true, nil)

		report, err := b.tb.Run(context.Background())

		var mm *verify.MismatchError
		Expect(errors.As(err, &mm)).To(BeTrue())
		Expect(mm.Index).To(Equal(1))
		Expect(mm.Expected).To(Equal(uint64(1)))
		Expect(mm.Actual).To(Equal(uint64(0)))
		Expect(report.State).NotTo(Equal(verify.StateDone))
		Expect(report.Checked).To(Equal(2))

		_, statErr := os.Stat(filepath.Join(cfg.ResultPath, "coverage.xml"))
		Expect(statErr).To(HaveOccurred())
	})

	It("should give up draining a silent device", func() {
		cfg.DrainTimeout = 5
		b := newBench(cfg, dut.MakeBuilder(), false, nil)

		report, err := b.tb.Run(context.Background())

		var te *verify.DrainTimeoutError
		Expect(errors.As(err, &te)).To(BeTrue())
		Expect(te.Pending).To(Equal(24))
		Expect(te.Polls).To(Equal(5))
		Expect(report.State).To(Equal(verify.StateDrain))
		Expect(report.Checked).To(BeZero())
	})

	It("should stop when the context is canceled", func() {
		b := newBench(cfg, dut.MakeBuilder(), true, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report, err := b.tb.Run(ctx)

		Expect(err).To(MatchError(context.Canceled))
		Expect(report.State).To(Equal(verify.StateIdle))
	})

	It("should refuse to build without a kernel", func() {
		Expect(func() {
			verify.MakeBuilder().Build("TB")
		}).To(Panic())
	})

	It("should name the states", func() {
		Expect(verify.StateExhaustiveStimulus.String()).
			To(Equal("ExhaustiveStimulus"))
		Expect(verify.State(42).String()).To(Equal("State(42)"))
	})
})

type timedChange struct {
	at    kernel.Time
	value uint64
}

type changeTimer struct {
	k       *kernel.Kernel
	changes []timedChange
}

func (c *changeTimer) Func(ctx sim.HookCtx) {
	change := ctx.Item.(bus.Change)
	c.changes = append(c.changes, timedChange{at: c.k.Now(), value: change.New})
}

// swapDevice computes OR like the reference device but hands out its first
// two results in reverse order.
type swapDevice struct {
	sigs    *bus.Bus
	regs    bus.RegisterMap
	latched map[int]uint64
	held    []uint64
	results []uint64
}

func newSwapDevice(sigs *bus.Bus) *swapDevice {
	return &swapDevice{
		sigs:    sigs,
		regs:    bus.DefaultRegisterMap(),
		latched: make(map[int]uint64),
	}
}

func (d *swapDevice) OnRisingEdge(_ kernel.Time) {
	if !d.sigs.RstN.Bool() {
		d.latched = make(map[int]uint64)
		d.held = nil
		d.results = nil
		d.sigs.ReadData.Set(0)

		return
	}

	if d.sigs.ReadEn.Bool() {
		switch bus.Address(d.sigs.ReadAddress.Value()) {
		case d.regs.Status:
			if len(d.results) > 0 {
				d.sigs.ReadData.Set(1)
			} else {
				d.sigs.ReadData.Set(0)
			}
		case d.regs.Data:
			if len(d.results) > 0 {
				d.sigs.ReadData.Set(d.results[0])
				d.results = d.results[1:]
			}
		}
	}

	if !d.sigs.WriteEn.Bool() {
		return
	}

	i, ok := d.regs.Input(bus.Address(d.sigs.WriteAddress.Value()))
	if !ok {
		return
	}

	d.latched[i] = d.sigs.WriteData.Value()
	if len(d.latched) < len(d.regs.Inputs) {
		return
	}

	values := make([]uint64, len(d.regs.Inputs))
	for j := range values {
		values[j] = d.latched[j]
	}
	d.latched = make(map[int]uint64)

	d.held = append(d.held, dut.Or(values))
	if len(d.held) == 2 {
		d.results = append(d.results, d.held[1], d.held[0])
	} else if len(d.held) > 2 {
		d.results = append(d.results, d.held[len(d.held)-1])
	}
}

var _ = Describe("Testbench ordering and setup", func() {
	var cfg config.Config

	BeforeEach(func() {
		cfg = config.Default()
		cfg.ResultPath = GinkgoT().TempDir()
		cfg.RandomTrials = 0
	})

	It("should reject results delivered out of order", func() {
		k := kernel.Builder{}.Build("Kernel")
		sigs := bus.MakeBuilder().Build("DUT")
		clock := kernel.NewClock(k, sigs.Clk, cfg.ClockPeriod)
		clock.AddListener(newSwapDevice(sigs))
		tb := verify.MakeBuilder().
			WithConfig(cfg).
			WithKernel(k).
			WithClock(clock).
			WithBus(sigs).
			Build("TB")

		report, err := tb.Run(context.Background())

		var mm *verify.MismatchError
		Expect(errors.As(err, &mm)).To(BeTrue())
		Expect(mm.Index).To(Equal(0))
		Expect(mm.Expected).To(Equal(uint64(0)))
		Expect(mm.Actual).To(Equal(uint64(1)))
		Expect(report.Passed).To(BeFalse())
	})

	It("should hold each reset phase for at least a clock period", func() {
		b := newBench(cfg, dut.MakeBuilder(), true, nil)
		rst := &changeTimer{k: b.k}
		b.sigs.RstN.AcceptHook(rst)

		_, err := b.tb.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(rst.changes).To(HaveLen(3))
		Expect(rst.changes[0]).To(Equal(timedChange{at: 0, value: 1}))
		Expect(rst.changes[1]).To(Equal(timedChange{at: 15 * kernel.NS, value: 0}))
		Expect(rst.changes[2]).To(Equal(timedChange{at: 35 * kernel.NS, value: 1}))
		Expect(rst.changes[1].at - rst.changes[0].at).
			To(BeNumerically(">=", cfg.ClockPeriod))
	})

	DescribeTable("should refuse a register map that does not fit the bus",
		func(mutate func(m *bus.RegisterMap)) {
			k := kernel.Builder{}.Build("Kernel")
			sigs := bus.MakeBuilder().Build("DUT")
			clock := kernel.NewClock(k, sigs.Clk, cfg.ClockPeriod)
			regs := bus.DefaultRegisterMap()
			mutate(&regs)

			Expect(func() {
				verify.MakeBuilder().
					WithConfig(cfg).
					WithKernel(k).
					WithClock(clock).
					WithBus(sigs).
					WithRegisterMap(regs).
					Build("TB")
			}).To(Panic())
		},
		Entry("address beyond the address bus", func(m *bus.RegisterMap) {
			m.Inputs[1].Addr = 10
		}),
		Entry("status beyond the address bus", func(m *bus.RegisterMap) {
			m.Status = 13
		}),
		Entry("channel wider than the data bus", func(m *bus.RegisterMap) {
			m.Inputs[0].Width = 2
		}),
	)
})
