package kernel

import "sync"

// A Mailbox is a FIFO that tasks can block on.
type Mailbox[T any] struct {
	k *Kernel

	mu      sync.Mutex
	items   []T
	getters waitList
}

// NewMailbox creates an empty mailbox.
func NewMailbox[T any](k *Kernel) *Mailbox[T] {
	return &Mailbox[T]{k: k}
}

// Put appends an item and wakes the tasks waiting for one.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.items = append(m.items, v)
	waiters := m.getters.take()
	m.mu.Unlock()

	for _, w := range waiters {
		m.k.scheduleWake(w.task, w.gen, m.k.now)
	}
}

// Len returns the number of queued items.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.items)
}

// TryGet pops the oldest item if there is one.
func (m *Mailbox[T]) TryGet() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if len(m.items) == 0 {
		return zero, false
	}

	v := m.items[0]
	m.items[0] = zero
	m.items = m.items[1:]

	return v, true
}

// Get pops the oldest item, suspending the task until one is available.
func (m *Mailbox[T]) Get(t *Task) (T, error) {
	for {
		if v, ok := m.TryGet(); ok {
			return v, nil
		}

		if err := t.Await(nonEmpty[T]{m: m}); err != nil {
			var zero T
			return zero, err
		}
	}
}

type nonEmpty[T any] struct {
	m *Mailbox[T]
}

func (n nonEmpty[T]) prime(t *Task) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()

	if len(n.m.items) > 0 {
		n.m.k.scheduleWake(t, t.gen, n.m.k.now)
		return
	}

	n.m.getters.add(t)
}
