package willow3d

import (
	"sync"

	"github.com/phanxgames/willow3d/render"
)

// Node is implemented by every declarative scene node.
type Node interface {
	// Role reports which kind of field the node can fill.
	Role() NodeRole
	// State reports the construction state.
	State() NodeState
	// SetupFinished ends construction and realizes the node's render objects.
	// Calling it again has no effect.
	SetupFinished()
}

// AppearanceNode can fill a Shape's appearance field.
type AppearanceNode interface {
	Node
	RenderAppearance() *render.Appearance
	NumStages() int
	Material() *Material

	SetLightingEnabled(on bool)
	ResetLightingEnabled()
	SetLocalColor(color, alpha bool)
	SetSolid(solid bool)
	SetCCW(ccw bool)
	SetTexCoordGenMode(stage int, mode string)
	SetTexCoordGenModes(modes []string)
	SetPolygonMode(m render.PolygonMode)
}

// GeometryNode can fill a Shape's geometry field.
type GeometryNode interface {
	Node
	RenderGeometry() *render.Geometry

	Solid() bool
	CCW() bool
	// TexCoordGenModes returns one texture coordinate generation hint per
	// stage. An empty string means the geometry's own coordinates are used.
	TexCoordGenModes() []string
	// RequiresUnlitColor reports whether the geometry is drawn unlit with a
	// colour fed from the material's emissive channel.
	RequiresUnlitColor() bool
	LightingEnabled() bool
	HasLocalColors() bool
	SetUnlitColor(c Color)
}

// Subscription is the handle returned when a listener is registered. It must
// be cancelled when the producer is replaced.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func newSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// Cancel removes the listener. It is safe to call more than once and on a nil
// Subscription.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

type slot[T any] struct{ l T }

// listenerSet holds listeners in registration order.
type listenerSet[T any] struct {
	mu    sync.Mutex
	slots []*slot[T]
}

func (s *listenerSet[T]) add(l T) *Subscription {
	sl := &slot[T]{l: l}
	s.mu.Lock()
	s.slots = append(s.slots, sl)
	s.mu.Unlock()
	return newSubscription(func() { s.remove(sl) })
}

func (s *listenerSet[T]) remove(sl *slot[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, x := range s.slots {
		if x == sl {
			s.slots = append(s.slots[:i], s.slots[i+1:]...)
			return
		}
	}
}

func (s *listenerSet[T]) snapshot() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.slots))
	for i, sl := range s.slots {
		out[i] = sl.l
	}
	return out
}

func (s *listenerSet[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// frameHook adapts a function to render.EndOfFrameListener. Hooks are
// compared by pointer, so one hook registered twice in a frame runs once.
type frameHook struct{ fn func() }

func newFrameHook(fn func()) *frameHook { return &frameHook{fn: fn} }

func (h *frameHook) AllEventsComplete() { h.fn() }
