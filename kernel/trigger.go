package kernel

// A Trigger is something a task can wait for.
type Trigger interface {
	prime(t *Task)
}

type waiter struct {
	task *Task
	gen  uint64
}

type waitList []waiter

func (l *waitList) add(t *Task) {
	*l = append(*l, waiter{task: t, gen: t.gen})
}

func (l *waitList) take() []waiter {
	w := *l
	*l = nil

	return w
}

type timer struct {
	d Time
}

// Timer fires d after the moment the task awaits it.
func Timer(d Time) Trigger {
	return timer{d: d}
}

func (tr timer) prime(t *Task) {
	t.k.scheduleWake(t, t.gen, t.k.now+tr.d)
}

type joinTrigger struct {
	target *Task
}

func (j joinTrigger) prime(t *Task) {
	if j.target.done {
		t.k.scheduleWake(t, t.gen, t.k.now)
		return
	}

	j.target.joiners.add(t)
}
