package syncstore

import "sync"

// snapshotQueue is an unbounded FIFO of states waiting for delivery.
// push never blocks, so dispatching under the store lock is safe.
type snapshotQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []State
	closed bool
}

func newSnapshotQueue() *snapshotQueue {
	q := &snapshotQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends st. Pushing to a closed queue drops st.
func (q *snapshotQueue) push(st State) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, st)
	q.cond.Signal()
}

// pop blocks until a state is available. It returns false once the queue
// is closed and empty.
func (q *snapshotQueue) pop() (State, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return State{}, false
	}
	st := q.items[0]
	q.items[0] = State{}
	q.items = q.items[1:]
	return st, true
}

// close stops accepting states; pop drains what is left.
func (q *snapshotQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
