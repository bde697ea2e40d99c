// Package render holds the scene objects a renderer traverses and the
// scheduler that decides when those objects may change.
//
// An object reachable from an attached root is live. Live objects may only be
// written from inside an update callback run by the Scheduler: bounds-affecting
// setters during the bounds phase and everything else during the data phase.
// Writing a live object at any other time panics. Objects that are not live
// may be written freely.
//
// Declarative nodes never check liveness themselves before writing. They call
// Dispatch, which either queues their listener with the scheduler or runs it
// immediately while the object's liveness is pinned.
package render

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Phase identifies a scheduler update window and the kind of change a
// listener callback performs.
type Phase uint32

const (
	PhaseNone   Phase = iota // outside any update window
	PhaseBounds              // bounds-affecting changes
	PhaseData                // data-only changes
)

// String returns a lower-case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseBounds:
		return "bounds"
	case PhaseData:
		return "data"
	default:
		return fmt.Sprintf("phase(%d)", uint32(p))
	}
}

// UpdateListener receives the deferred callbacks for objects it asked to
// change. src is the object the request was made against.
type UpdateListener interface {
	UpdateNodeBoundsChanges(src Object)
	UpdateNodeDataChanges(src Object)
}

// Object is a node of the render graph.
type Object interface {
	// IsLive reports whether the object is reachable from an attached root.
	IsLive() bool
	// RequestBoundsUpdate queues l to run during the next bounds phase.
	RequestBoundsUpdate(l UpdateListener)
	// RequestDataUpdate queues l to run during the next data phase.
	RequestDataUpdate(l UpdateListener)

	core() *base
}

// parent is implemented by objects that own other objects. Liveness flows
// from a parent to everything it returns.
type parent interface {
	children() []Object
}

// base carries the liveness bookkeeping shared by every object.
type base struct {
	// pin is held while liveness changes and while an immediate update runs,
	// so the two never interleave.
	pin   sync.Mutex
	refs  atomic.Int32
	sched atomic.Pointer[Scheduler]
	self  Object
}

func (b *base) init(self Object) { b.self = self }

func (b *base) core() *base { return b }

// IsLive reports whether the object is reachable from an attached root.
func (b *base) IsLive() bool { return b.refs.Load() > 0 }

// RequestBoundsUpdate queues l for the owning scheduler's next bounds phase.
// Objects that have never been attached run l immediately.
func (b *base) RequestBoundsUpdate(l UpdateListener) { b.request(l, PhaseBounds) }

// RequestDataUpdate queues l for the owning scheduler's next data phase.
// Objects that have never been attached run l immediately.
func (b *base) RequestDataUpdate(l UpdateListener) { b.request(l, PhaseData) }

func (b *base) request(l UpdateListener, p Phase) {
	if s := b.sched.Load(); s != nil {
		s.enqueue(b.self, l, p)
		return
	}
	Dispatch(b.self, l, p)
}

// checkWrite panics when a live object is written outside phase p.
func (b *base) checkWrite(p Phase) {
	if b.refs.Load() == 0 {
		return
	}
	s := b.sched.Load()
	if s == nil || s.Phase() != p {
		panic(fmt.Sprintf("render: %s write to live %T outside the %s phase", p, b.self, p))
	}
}

// swapChild moves liveness from old to next when the owner is live.
// Either may be nil.
func (b *base) swapChild(old, next Object) {
	if old == next || b.refs.Load() == 0 {
		return
	}
	s := b.sched.Load()
	if next != nil {
		adjustLive(next, s, 1)
	}
	if old != nil {
		adjustLive(old, s, -1)
	}
}

// adjustLive changes o's liveness count by delta and propagates the change to
// its children when o becomes live or stops being live.
func adjustLive(o Object, s *Scheduler, delta int32) {
	b := o.core()
	b.pin.Lock()
	defer b.pin.Unlock()

	n := b.refs.Add(delta)
	if n < 0 {
		panic(fmt.Sprintf("render: liveness of %T released more often than acquired", o))
	}
	if s != nil {
		b.sched.Store(s)
	}
	became := delta > 0 && n == delta
	left := delta < 0 && n == 0
	if !became && !left {
		return
	}
	if p, ok := o.(parent); ok {
		for _, c := range p.children() {
			adjustLive(c, s, delta)
		}
	}
}

// Dispatch routes a change against o. When o is live, l is queued for the
// matching scheduler phase. Otherwise the matching callback runs before
// Dispatch returns, with o's liveness pinned for the duration.
//
// A callback run immediately must not Dispatch against o again.
func Dispatch(o Object, l UpdateListener, p Phase) {
	b := o.core()
	b.pin.Lock()
	if b.refs.Load() > 0 {
		s := b.sched.Load()
		b.pin.Unlock()
		s.enqueue(o, l, p)
		return
	}
	defer b.pin.Unlock()
	invoke(o, l, p)
}

func invoke(o Object, l UpdateListener, p Phase) {
	switch p {
	case PhaseBounds:
		l.UpdateNodeBoundsChanges(o)
	case PhaseData:
		l.UpdateNodeDataChanges(o)
	default:
		panic(fmt.Sprintf("render: cannot dispatch a %s change", p))
	}
}

// present converts a possibly-nil concrete object into an Object interface
// value that is nil when v is.
func present[T interface {
	comparable
	Object
}](v T) Object {
	var zero T
	if v == zero {
		return nil
	}
	return v
}
