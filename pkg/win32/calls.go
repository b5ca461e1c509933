package win32

import (
	"errors"
	"slices"
	"sync"
)

var errReceiverClosed = errors.New("hotkey receiver is closed")

type call struct {
	fn     func() error
	result chan error
}

// callQueue hands work to a thread that only runs it after being woken.
type callQueue struct {
	mu      sync.Mutex
	pending []*call
	closed  bool
}

// do queues fn, wakes the owning thread and waits for fn's result. When the
// wake-up fails fn is withdrawn, unless the thread already took it.
func (q *callQueue) do(fn func() error, wake func() error, done <-chan struct{}) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errReceiverClosed
	}
	c := &call{fn: fn, result: make(chan error, 1)}
	q.pending = append(q.pending, c)
	q.mu.Unlock()

	if err := wake(); err != nil && q.cancel(c) {
		return err
	}

	select {
	case err := <-c.result:
		return err
	case <-done:
		return errReceiverClosed
	}
}

// run executes everything queued so far. Only the owning thread calls it.
func (q *callQueue) run() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, c := range pending {
		c.result <- c.fn()
	}
}

func (q *callQueue) cancel(c *call) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := slices.Index(q.pending, c)
	if i < 0 {
		return false
	}
	q.pending = slices.Delete(q.pending, i, i+1)
	return true
}

func (q *callQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

func (q *callQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
