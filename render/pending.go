package render

import "sync"

// QueueState is the lifecycle of a PendingSet.
type QueueState uint8

const (
	QueueIdle     QueueState = iota // empty
	QueueQueued                     // holds entries waiting for a drain
	QueueFlushing                   // a drain is running over a snapshot
)

func (s QueueState) String() string {
	switch s {
	case QueueIdle:
		return "idle"
	case QueueQueued:
		return "queued"
	case QueueFlushing:
		return "flushing"
	default:
		return "invalid"
	}
}

// PendingSet is an insertion-ordered set that any goroutine may add to and a
// single consumer drains. A drain works on a snapshot: entries added while it
// runs are kept for the next drain, including entries equal to ones being
// processed.
//
// The zero value is an empty, idle set. Keys must be comparable at run time;
// interface keys holding funcs or maps panic.
type PendingSet[K comparable] struct {
	mu    sync.Mutex
	state QueueState
	order []K
	index map[K]struct{}
}

// Add inserts k. It reports true when the set moved from idle to queued, which
// is the caller's cue to arrange a drain. Adding a key already waiting is a
// no-op.
func (p *PendingSet[K]) Add(k K) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.index[k]; ok {
		return false
	}
	if p.index == nil {
		p.index = make(map[K]struct{})
	}
	p.index[k] = struct{}{}
	p.order = append(p.order, k)

	if p.state == QueueIdle {
		p.state = QueueQueued
		return true
	}
	return false
}

// Drain calls fn for every entry present when Drain started, in insertion
// order, without holding the lock. It reports whether new entries arrived
// during the drain; those stay queued.
func (p *PendingSet[K]) Drain(fn func(K)) (more bool) {
	p.mu.Lock()
	switch p.state {
	case QueueIdle:
		p.mu.Unlock()
		return false
	case QueueFlushing:
		p.mu.Unlock()
		panic("render: PendingSet drained re-entrantly")
	}
	snapshot := p.order
	p.order = nil
	p.index = nil
	p.state = QueueFlushing
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		if len(p.order) > 0 {
			p.state = QueueQueued
			more = true
		} else {
			p.state = QueueIdle
		}
		p.mu.Unlock()
	}()

	for _, k := range snapshot {
		fn(k)
	}
	return false
}

// Len returns the number of entries waiting for the next drain.
func (p *PendingSet[K]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}

// State returns the current lifecycle state.
func (p *PendingSet[K]) State() QueueState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
