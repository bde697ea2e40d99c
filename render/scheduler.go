package render

import (
	"sync"
	"sync/atomic"
)

// Stats counts the work done by one Scheduler.Boundary call.
type Stats struct {
	LivenessChanges int
	BoundsUpdates   int
	DataUpdates     int
}

type request struct {
	obj   Object
	l     UpdateListener
	phase Phase
}

type liveChange struct {
	root  Object
	delta int32
}

// Scheduler owns the live render graph. All of its methods except Boundary
// are safe to call from any goroutine. Boundary must be called from the
// goroutine that traverses the graph, between traversals.
type Scheduler struct {
	phase  atomic.Uint32
	bounds PendingSet[request]
	data   PendingSet[request]

	mu      sync.Mutex
	changes []liveChange
	last    Stats
}

// NewScheduler creates an idle scheduler with nothing attached.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Attach makes root and everything below it live at the next boundary.
func (s *Scheduler) Attach(root Object) {
	s.mu.Lock()
	s.changes = append(s.changes, liveChange{root: root, delta: 1})
	s.mu.Unlock()
}

// Detach releases the liveness granted by a matching Attach at the next
// boundary.
func (s *Scheduler) Detach(root Object) {
	s.mu.Lock()
	s.changes = append(s.changes, liveChange{root: root, delta: -1})
	s.mu.Unlock()
}

// Phase returns the update window currently running.
func (s *Scheduler) Phase() Phase {
	return Phase(s.phase.Load())
}

// Pending returns the number of bounds and data requests waiting for the next
// boundary.
func (s *Scheduler) Pending() (bounds, data int) {
	return s.bounds.Len(), s.data.Len()
}

// LastStats returns the stats of the most recent Boundary call.
func (s *Scheduler) LastStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) enqueue(o Object, l UpdateListener, p Phase) {
	r := request{obj: o, l: l, phase: p}
	switch p {
	case PhaseBounds:
		s.bounds.Add(r)
	case PhaseData:
		s.data.Add(r)
	default:
		panic("render: cannot queue a " + p.String() + " update")
	}
}

// Boundary applies queued attach and detach calls, then runs every bounds
// request queued before the call to completion, then every data request.
// Requests made while a phase is flushing wait for the next boundary, except
// data requests made by bounds callbacks, which run in this boundary's data
// phase.
func (s *Scheduler) Boundary() Stats {
	var st Stats

	s.mu.Lock()
	changes := s.changes
	s.changes = nil
	s.mu.Unlock()

	for _, c := range changes {
		adjustLive(c.root, s, c.delta)
		st.LivenessChanges++
	}

	defer s.phase.Store(uint32(PhaseNone))

	s.phase.Store(uint32(PhaseBounds))
	s.bounds.Drain(func(r request) {
		r.l.UpdateNodeBoundsChanges(r.obj)
		st.BoundsUpdates++
	})

	s.phase.Store(uint32(PhaseData))
	s.data.Drain(func(r request) {
		r.l.UpdateNodeDataChanges(r.obj)
		st.DataUpdates++
	})

	s.mu.Lock()
	s.last = st
	s.mu.Unlock()
	return st
}
