// Package kernel runs harness activities as cooperative tasks on top of an
// akita event engine.
//
// Every task is backed by a goroutine, but only one of them runs at any
// moment: the engine hands control to a task and blocks until that task
// suspends in Await or returns. Between two suspension points a task runs
// atomically with respect to every other task, so tasks can share the bus
// signals without locks.
//
// A task suspends on a Trigger:
//
//	clock.RisingEdge()   the next rising edge of a Clock
//	clock.FallingEdge()  the next falling edge
//	kernel.Timer(d)      d picoseconds from now
//	task.Finished()      another task returning
//
// and on Mailbox.Get, which suspends until an item is available.
//
// When the root task passed to Run returns, every other task is killed and
// the clock stops, so Run returns once the engine drains. A task that
// returns an error other than ErrKilled fails the whole run.
package kernel

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

var (
	// ErrKilled is returned by Await once the task has been killed.
	ErrKilled = errors.New("task killed")

	// ErrStalled reports that the engine ran out of events while the root
	// task was still suspended.
	ErrStalled = errors.New("simulation stalled")
)

// Kernel schedules tasks on an akita engine.
type Kernel struct {
	name   string
	engine sim.Engine
	ctx    context.Context

	now     Time
	yield   chan struct{}
	tasks   []*Task
	root    *Task
	current *Task
	nextID  int

	running bool
	stopped bool
	err     error
}

// Builder creates kernels.
type Builder struct {
	engine sim.Engine
}

// WithEngine sets the engine that advances the simulation time. A serial
// engine is created when none is given.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// Build creates a kernel.
func (b Builder) Build(name string) *Kernel {
	engine := b.engine
	if engine == nil {
		engine = sim.NewSerialEngine()
	}

	return &Kernel{
		name:   name,
		engine: engine,
		ctx:    context.Background(),
		yield:  make(chan struct{}),
	}
}

// Name returns the name of the kernel.
func (k *Kernel) Name() string {
	return k.name
}

// Engine returns the engine that drives the kernel.
func (k *Kernel) Engine() sim.Engine {
	return k.engine
}

// Now returns the current simulation time.
func (k *Kernel) Now() Time {
	return k.now
}

// Stopped reports whether the run is over.
func (k *Kernel) Stopped() bool {
	return k.stopped
}

// Err returns the error that failed the run, if any.
func (k *Kernel) Err() error {
	return k.err
}

// Run spawns the root task and runs the engine until every task is done.
func (k *Kernel) Run(ctx context.Context, name string, fn TaskFunc) error {
	if k.running {
		panic("kernel is already running")
	}

	k.running = true
	k.ctx = ctx
	k.root = k.Spawn(name, fn)

	if err := k.engine.Run(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	stalled := !k.root.done
	k.reap()

	if k.err != nil {
		return k.err
	}

	if stalled {
		return fmt.Errorf("%w: task %s still waiting at %s",
			ErrStalled, k.root.name, k.now)
	}

	return nil
}

// Spawn creates a task that starts at the current time, once the caller
// suspends.
func (k *Kernel) Spawn(name string, fn TaskFunc) *Task {
	t := &Task{
		k:      k,
		id:     k.nextID,
		name:   name,
		resume: make(chan struct{}),
	}
	k.nextID++
	k.tasks = append(k.tasks, t)

	go t.run(fn)

	if k.stopped {
		t.killed = true
	}

	k.scheduleWake(t, t.gen, k.now)

	Trace("Task",
		"Behavior", "Spawn",
		"Task", name,
		"Time", k.now.String(),
	)

	return t
}

// Kill cancels a task. Its pending and future awaits return ErrKilled.
func (k *Kernel) Kill(t *Task) {
	if t.done || t.killed {
		return
	}

	t.killed = true
	t.gen++

	if t == k.current {
		return
	}

	k.scheduleWake(t, t.gen, k.now)
}

// Handle resumes the task of a wake event.
func (k *Kernel) Handle(e sim.Event) error {
	evt, ok := e.(*wakeEvent)
	if !ok {
		panic(fmt.Sprintf("kernel cannot handle event of type %T", e))
	}

	k.advance(evt.at)
	k.checkContext()
	k.wake(evt.task, evt.gen)

	return nil
}

type wakeEvent struct {
	*sim.EventBase

	at   Time
	task *Task
	gen  uint64
}

func (k *Kernel) scheduleWake(t *Task, gen uint64, at Time) {
	k.engine.Schedule(&wakeEvent{
		EventBase: sim.NewEventBase(at.VTime(), k),
		at:        at,
		task:      t,
		gen:       gen,
	})
}

func (k *Kernel) advance(at Time) {
	if at > k.now {
		k.now = at
	}
}

func (k *Kernel) checkContext() {
	if k.stopped {
		return
	}

	if err := k.ctx.Err(); err != nil {
		k.fail(fmt.Errorf("interrupted at %s: %w", k.now, err))
	}
}

func (k *Kernel) wake(t *Task, gen uint64) {
	if t.done || t.gen != gen {
		return
	}

	k.resume(t)
}

func (k *Kernel) resume(t *Task) {
	k.current = t
	t.resume <- struct{}{}
	<-k.yield
	k.current = nil
}

func (k *Kernel) finished(t *Task, err error) {
	Trace("Task",
		"Behavior", "Finish",
		"Task", t.name,
		"Time", k.now.String(),
		"Error", err,
	)

	for _, w := range t.joiners.take() {
		k.scheduleWake(w.task, w.gen, k.now)
	}

	switch {
	case err != nil && !errors.Is(err, ErrKilled):
		k.fail(fmt.Errorf("task %s: %w", t.name, err))
	case t == k.root:
		k.stop()
	}
}

func (k *Kernel) fail(err error) {
	if k.err == nil {
		k.err = err
	}

	k.stop()
}

func (k *Kernel) stop() {
	if k.stopped {
		return
	}

	k.stopped = true

	for _, t := range k.tasks {
		k.Kill(t)
	}
}

// reap finishes every task left suspended after the engine ran dry.
func (k *Kernel) reap() {
	k.stopped = true

	for i := 0; i < len(k.tasks); i++ {
		t := k.tasks[i]
		if t.done {
			continue
		}

		t.killed = true
		t.gen++
		k.resume(t)
	}
}
