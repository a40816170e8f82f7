// Package verify runs a full verification of a register-mapped device: it
// drives every input combination and a run of random ones through the input
// channels, checks the device results against a reference function, and
// measures functional coverage of the stimulus space.
//
// A Testbench moves through a fixed sequence of states:
//
//	Reset -> Warmup -> ExhaustiveStimulus -> RandomStimulus -> Drain -> Report -> Done
//
// A failure stops the run in the state where it happened.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
	"github.com/sarchlab/regbench/api"
	"github.com/sarchlab/regbench/bus"
	"github.com/sarchlab/regbench/config"
	"github.com/sarchlab/regbench/coverage"
	"github.com/sarchlab/regbench/kernel"
	valgen "github.com/sarchlab/regbench/util"
)

// State is a phase of a verification run.
type State int

// States of a run, in order.
const (
	StateIdle State = iota
	StateReset
	StateWarmup
	StateExhaustiveStimulus
	StateRandomStimulus
	StateDrain
	StateReport
	StateDone
)

var stateNames = map[State]string{
	StateIdle:               "Idle",
	StateReset:              "Reset",
	StateWarmup:             "Warmup",
	StateExhaustiveStimulus: "ExhaustiveStimulus",
	StateRandomStimulus:     "RandomStimulus",
	StateDrain:              "Drain",
	StateReport:             "Report",
	StateDone:               "Done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// Reference computes the expected device result of one stimulus.
type Reference func(values []uint64) uint64

// Or is the reference of an OR device.
func Or(values []uint64) uint64 {
	var r uint64
	for _, v := range values {
		r |= v
	}

	return r
}

// Testbench sequences a verification run.
type Testbench struct {
	name  string
	runID xid.ID
	cfg   config.Config

	k      *kernel.Kernel
	clock  *kernel.Clock
	bus    *bus.Bus
	regs   bus.RegisterMap
	ref    Reference
	rng    *rand.Rand
	widths []int

	drivers    []*api.InputDriver
	monitor    *api.OutputMonitor
	observed   *kernel.Mailbox[uint64]
	scoreboard *Scoreboard
	coverage   *coverage.Model

	monitorTask *kernel.Task
	checkerTask *kernel.Task

	state        State
	stimuli      int
	coveragePath string
	ran          bool
}

// Name returns the name of the testbench.
func (tb *Testbench) Name() string {
	return tb.name
}

// RunID returns the unique ID of this run.
func (tb *Testbench) RunID() xid.ID {
	return tb.runID
}

// State returns the current state.
func (tb *Testbench) State() State {
	return tb.state
}

// Drivers returns one driver per input channel.
func (tb *Testbench) Drivers() []*api.InputDriver {
	return tb.drivers
}

// Monitor returns the output monitor.
func (tb *Testbench) Monitor() *api.OutputMonitor {
	return tb.monitor
}

// Scoreboard returns the scoreboard.
func (tb *Testbench) Scoreboard() *Scoreboard {
	return tb.scoreboard
}

// Coverage returns the coverage model.
func (tb *Testbench) Coverage() *coverage.Model {
	return tb.coverage
}

// Run executes the whole sequence. The report is returned even when the run
// fails.
func (tb *Testbench) Run(ctx context.Context) (*VerificationReport, error) {
	if tb.ran {
		panic("testbench can only run once")
	}
	tb.ran = true

	err := tb.k.Run(ctx, tb.name, tb.sequence)
	report := tb.report(err)

	if err == nil && tb.cfg.ReportFile != "" {
		path := filepath.Join(tb.cfg.ResultPath, tb.cfg.ReportFile)
		if saveErr := report.SaveReportToFile(path); saveErr != nil {
			return report, saveErr
		}
	}

	if err != nil {
		slog.Error("Testbench",
			"Behavior", "Fail",
			"Name", tb.name,
			"State", tb.state.String(),
			"Error", err,
		)

		return report, err
	}

	return report, nil
}

func (tb *Testbench) sequence(t *kernel.Task) error {
	tb.clock.Start()
	tb.bus.Idle()

	phases := []struct {
		state State
		run   func(t *kernel.Task) error
	}{
		{StateReset, tb.reset},
		{StateWarmup, tb.warmup},
		{StateExhaustiveStimulus, tb.exhaustive},
		{StateRandomStimulus, tb.random},
		{StateDrain, tb.drain},
		{StateReport, tb.finish},
	}

	for _, p := range phases {
		tb.enter(t, p.state)

		if err := p.run(t); err != nil {
			return err
		}
	}

	tb.enter(t, StateDone)

	return nil
}

func (tb *Testbench) enter(t *kernel.Task, s State) {
	tb.state = s

	slog.Info("Testbench",
		"Behavior", "Enter",
		"Name", tb.name,
		"State", s.String(),
		"Time", t.Now().String(),
	)
}

func (tb *Testbench) reset(t *kernel.Task) error {
	edge := func() error {
		return t.Await(tb.clock.RisingEdge())
	}

	// The first edge comes half a period after Start, so the inactive
	// phase spans two edges to last a full period.
	tb.bus.RstN.Set(1)
	for i := 0; i < 2; i++ {
		if err := edge(); err != nil {
			return err
		}
	}

	tb.bus.RstN.Set(0)
	for i := 0; i < tb.cfg.ResetCycles; i++ {
		if err := edge(); err != nil {
			return err
		}
	}

	tb.bus.RstN.Set(1)
	if err := edge(); err != nil {
		return err
	}

	if !tb.cfg.CheckResetState {
		return nil
	}

	pending, err := tb.monitor.ReadStatus(t)
	if err != nil {
		return err
	}

	if pending {
		return &ResetError{Status: 1, Time: t.Now()}
	}

	return nil
}

func (tb *Testbench) warmup(_ *kernel.Task) error {
	tb.monitorTask = tb.k.Spawn(tb.name+".monitor", tb.monitor.Run)
	tb.checkerTask = tb.k.Spawn(tb.name+".checker",
		func(t *kernel.Task) error {
			return tb.scoreboard.Run(t, tb.observed)
		})

	return nil
}

func (tb *Testbench) exhaustive(t *kernel.Task) error {
	return tb.stimulate(t, valgen.MakeExhaustiveGen(tb.widths))
}

func (tb *Testbench) random(t *kernel.Task) error {
	return tb.stimulate(t,
		valgen.MakeRandomGen(tb.rng, tb.widths, tb.cfg.RandomTrials))
}

func (tb *Testbench) stimulate(t *kernel.Task, gen valgen.Gen) error {
	for {
		values, ok := gen()
		if !ok {
			return nil
		}

		if err := tb.apply(t, values); err != nil {
			return err
		}
	}
}

func (tb *Testbench) apply(t *kernel.Task, values []uint64) error {
	tb.scoreboard.Push(tb.ref(values))

	if err := tb.coverage.Sample(values...); err != nil {
		return err
	}

	for i, d := range tb.drivers {
		if err := d.Send(t, values[i]); err != nil {
			return err
		}
	}

	tb.stimuli++

	return t.Await(kernel.Timer(tb.cfg.StimulusGap))
}

func (tb *Testbench) drain(t *kernel.Task) error {
	for polls := 0; !tb.scoreboard.Drained(); polls++ {
		if polls >= tb.cfg.DrainTimeout {
			return &DrainTimeoutError{
				Pending: tb.scoreboard.Pending(),
				Polls:   polls,
				Time:    t.Now(),
			}
		}

		if err := t.Await(kernel.Timer(tb.cfg.DrainPoll)); err != nil {
			return err
		}
	}

	return nil
}

func (tb *Testbench) finish(_ *kernel.Task) error {
	tb.k.Kill(tb.monitorTask)
	tb.k.Kill(tb.checkerTask)
	tb.bus.Idle()

	tb.coverage.Log(slog.Default())

	path := filepath.Join(tb.cfg.ResultPath, tb.cfg.CoverageFile)
	if err := tb.coverage.Export(path); err != nil {
		return err
	}
	tb.coveragePath = path

	return nil
}

func (tb *Testbench) report(err error) *VerificationReport {
	return &VerificationReport{
		RunID:        tb.runID.String(),
		Name:         tb.name,
		Seed:         tb.cfg.Seed,
		State:        tb.state,
		Err:          err,
		Passed:       err == nil,
		Stimuli:      tb.stimuli,
		Pushed:       tb.scoreboard.Pushed(),
		Checked:      tb.scoreboard.Checked(),
		Pending:      tb.scoreboard.Pending(),
		Polls:        tb.monitor.Polls(),
		Cycles:       tb.clock.Cycles(),
		SimTime:      tb.k.Now(),
		Coverage:     tb.coverage.Snapshot(),
		CoveragePath: tb.coveragePath,
	}
}

// Builder creates testbenches.
type Builder struct {
	cfg   config.Config
	k     *kernel.Kernel
	clock *kernel.Clock
	bus   *bus.Bus
	regs  bus.RegisterMap
	ref   Reference
}

// MakeBuilder returns a builder with the default configuration, the default
// register map and the OR reference.
func MakeBuilder() Builder {
	return Builder{
		cfg:  config.Default(),
		regs: bus.DefaultRegisterMap(),
		ref:  Or,
	}
}

// WithConfig sets the run settings.
func (b Builder) WithConfig(cfg config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithKernel sets the kernel the run executes on.
func (b Builder) WithKernel(k *kernel.Kernel) Builder {
	b.k = k
	return b
}

// WithClock sets the clock of the device under test.
func (b Builder) WithClock(clock *kernel.Clock) Builder {
	b.clock = clock
	return b
}

// WithBus sets the bus of the device under test.
func (b Builder) WithBus(sigs *bus.Bus) Builder {
	b.bus = sigs
	return b
}

// WithRegisterMap sets the register map of the device under test.
func (b Builder) WithRegisterMap(regs bus.RegisterMap) Builder {
	b.regs = regs
	return b
}

// WithReference sets the function the device is checked against.
func (b Builder) WithReference(ref Reference) Builder {
	b.ref = ref
	return b
}

// Build creates a testbench.
func (b Builder) Build(name string) *Testbench {
	if b.k == nil || b.clock == nil || b.bus == nil {
		panic("testbench needs a kernel, a clock and a bus")
	}

	if err := b.cfg.Validate(); err != nil {
		panic(err)
	}

	if err := b.regs.Validate(); err != nil {
		panic(err)
	}

	addrWidth := min(b.bus.WriteAddress.Width(), b.bus.ReadAddress.Width())
	if err := b.regs.ValidateWidths(addrWidth, b.bus.WriteData.Width()); err != nil {
		panic(err)
	}

	tb := &Testbench{
		name:       name,
		runID:      xid.New(),
		cfg:        b.cfg,
		k:          b.k,
		clock:      b.clock,
		bus:        b.bus,
		regs:       b.regs,
		ref:        b.ref,
		rng:        rand.New(rand.NewSource(b.cfg.Seed)),
		observed:   kernel.NewMailbox[uint64](b.k),
		scoreboard: NewScoreboard(name + ".scoreboard"),
	}

	tb.buildDrivers()
	tb.buildMonitor()
	tb.buildCoverage()

	return tb
}

func (tb *Testbench) buildDrivers() {
	builder := api.MakeDriverBuilder().
		WithBus(tb.bus).
		WithClock(tb.clock).
		WithSettle(tb.cfg.SettleTime)

	for _, c := range tb.regs.Inputs {
		tb.drivers = append(tb.drivers,
			builder.Build(tb.name+".driver."+c.Name, c))
		tb.widths = append(tb.widths, c.Width)
	}
}

func (tb *Testbench) buildMonitor() {
	tb.monitor = api.MakeMonitorBuilder().
		WithBus(tb.bus).
		WithClock(tb.clock).
		WithRegisterMap(tb.regs).
		WithSettle(tb.cfg.SettleTime).
		WithIdle(tb.cfg.MonitorIdle).
		WithSink(tb.observed).
		Build(tb.name + ".monitor")
}

func (tb *Testbench) buildCoverage() {
	tb.coverage = coverage.NewModel(tb.name)

	names := make([]string, 0, len(tb.regs.Inputs))
	short := make([]string, 0, len(tb.regs.Inputs))

	for i, c := range tb.regs.Inputs {
		name := "input." + c.Name
		if err := tb.coverage.AddCoverPoint(
			name, coverage.Channel(i), c.Bins()...); err != nil {
			panic(err)
		}

		names = append(names, name)
		short = append(short, c.Name)
	}

	if len(names) < 2 {
		return
	}

	cross := "input.cross." + strings.Join(short, "")
	if err := tb.coverage.AddCross(cross, names...); err != nil {
		panic(err)
	}
}
