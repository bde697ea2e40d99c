package willow3d

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// TextureTransformListener is told when a transform's matrices change.
type TextureTransformListener interface {
	TextureTransformChanged(src TextureTransformNode)
}

// TextureTransformNode is a TextureTransform or a MultiTextureTransform.
type TextureTransformNode interface {
	Node
	// StageMatrix returns the matrix for texture stage i.
	StageMatrix(i int) mgl32.Mat4
	AddTransformListener(l TextureTransformListener) *Subscription
}

// TextureTransform is a 2D transform applied to texture coordinates:
// translate by -center, scale, rotate, translate by center, then translate.
type TextureTransform struct {
	mu          sync.Mutex
	state       NodeState
	center      mgl32.Vec2
	rotation    float32
	scale       mgl32.Vec2
	translation mgl32.Vec2
	listeners   listenerSet[TextureTransformListener]
}

// NewTextureTransform returns the identity transform.
func NewTextureTransform() *TextureTransform {
	return &TextureTransform{state: StateUnderConstruction, scale: mgl32.Vec2{1, 1}}
}

func (t *TextureTransform) Role() NodeRole { return RoleTextureTransform }

func (t *TextureTransform) State() NodeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *TextureTransform) SetupFinished() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateUninitialized {
		panic("willow3d: TextureTransform not initialized; use NewTextureTransform")
	}
	t.state = StateLive
}

// AddTransformListener registers l for changes made while live.
func (t *TextureTransform) AddTransformListener(l TextureTransformListener) *Subscription {
	return t.listeners.add(l)
}

func (t *TextureTransform) set(fn func()) {
	t.mu.Lock()
	fn()
	live := t.state == StateLive
	t.mu.Unlock()
	if !live {
		return
	}
	for _, l := range t.listeners.snapshot() {
		l.TextureTransformChanged(t)
	}
}

// SetCenter sets the point rotation and scale happen about.
func (t *TextureTransform) SetCenter(c mgl32.Vec2) { t.set(func() { t.center = c }) }

// SetRotation sets the rotation in radians.
func (t *TextureTransform) SetRotation(r float32) { t.set(func() { t.rotation = r }) }

func (t *TextureTransform) SetScale(s mgl32.Vec2) { t.set(func() { t.scale = s }) }

func (t *TextureTransform) SetTranslation(v mgl32.Vec2) { t.set(func() { t.translation = v }) }

// Matrix returns the coordinate transform.
func (t *TextureTransform) Matrix() mgl32.Mat4 {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.center
	return mgl32.Translate3D(-c.X(), -c.Y(), 0).
		Mul4(mgl32.Scale3D(t.scale.X(), t.scale.Y(), 1)).
		Mul4(mgl32.HomogRotate3DZ(t.rotation)).
		Mul4(mgl32.Translate3D(c.X(), c.Y(), 0)).
		Mul4(mgl32.Translate3D(t.translation.X(), t.translation.Y(), 0))
}

// StageMatrix returns the same matrix for every stage.
func (t *TextureTransform) StageMatrix(int) mgl32.Mat4 { return t.Matrix() }

// MultiTextureTransform holds one TextureTransform per stage. Stages past
// the end use the identity.
type MultiTextureTransform struct {
	mu        sync.Mutex
	state     NodeState
	children  []*TextureTransform
	childSubs []*Subscription
	listeners listenerSet[TextureTransformListener]
}

// NewMultiTextureTransform returns a transform with one child per stage.
func NewMultiTextureTransform(children ...*TextureTransform) *MultiTextureTransform {
	return &MultiTextureTransform{state: StateUnderConstruction, children: children}
}

func (t *MultiTextureTransform) Role() NodeRole { return RoleTextureTransform }

func (t *MultiTextureTransform) State() NodeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *MultiTextureTransform) SetupFinished() {
	t.mu.Lock()
	if t.state == StateUninitialized {
		t.mu.Unlock()
		panic("willow3d: MultiTextureTransform not initialized; use NewMultiTextureTransform")
	}
	if t.state == StateLive {
		t.mu.Unlock()
		return
	}
	t.state = StateLive
	children := t.children
	t.mu.Unlock()

	subs := make([]*Subscription, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		c.SetupFinished()
		subs = append(subs, c.AddTransformListener(t))
	}
	t.mu.Lock()
	t.childSubs = subs
	t.mu.Unlock()
}

func (t *MultiTextureTransform) AddTransformListener(l TextureTransformListener) *Subscription {
	return t.listeners.add(l)
}

// TextureTransformChanged forwards a child change to this node's listeners.
func (t *MultiTextureTransform) TextureTransformChanged(TextureTransformNode) {
	for _, l := range t.listeners.snapshot() {
		l.TextureTransformChanged(t)
	}
}

// StageMatrix returns the matrix of stage i, or identity when no child
// covers it.
func (t *MultiTextureTransform) StageMatrix(i int) mgl32.Mat4 {
	t.mu.Lock()
	var c *TextureTransform
	if i >= 0 && i < len(t.children) {
		c = t.children[i]
	}
	t.mu.Unlock()
	if c == nil {
		return mgl32.Ident4()
	}
	return c.Matrix()
}
