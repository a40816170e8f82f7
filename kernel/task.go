package kernel

import "fmt"

// TaskFunc is the body of a task.
type TaskFunc func(t *Task) error

// A Task is one cooperatively scheduled activity.
type Task struct {
	k      *Kernel
	id     int
	name   string
	resume chan struct{}

	gen     uint64
	killed  bool
	done    bool
	err     error
	joiners waitList
}

// Name returns the name of the task.
func (t *Task) Name() string {
	return t.name
}

// Kernel returns the kernel that runs the task.
func (t *Task) Kernel() *Kernel {
	return t.k
}

// Now returns the current simulation time.
func (t *Task) Now() Time {
	return t.k.now
}

// Done reports whether the task has returned.
func (t *Task) Done() bool {
	return t.done
}

// Err returns what the task returned.
func (t *Task) Err() error {
	return t.err
}

// Killed reports whether the task has been killed.
func (t *Task) Killed() bool {
	return t.killed
}

// Await suspends the task until the trigger fires.
func (t *Task) Await(trigger Trigger) error {
	if t.killed {
		return ErrKilled
	}

	t.gen++
	trigger.prime(t)
	t.suspend()

	if t.killed {
		return ErrKilled
	}

	return nil
}

// Finished fires when the task returns.
func (t *Task) Finished() Trigger {
	return joinTrigger{target: t}
}

func (t *Task) suspend() {
	t.k.yield <- struct{}{}
	<-t.resume
}

func (t *Task) run(fn TaskFunc) {
	<-t.resume

	var err error
	if !t.killed {
		err = t.call(fn)
	}

	t.done = true
	t.err = err
	t.k.finished(t, err)

	t.k.yield <- struct{}{}
}

func (t *Task) call(fn TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return fn(t)
}
