package willow3d

import "github.com/phanxgames/willow3d/render"

// FrameStateManager accepts callbacks to run once the current frame's events
// have all been processed. *render.FrameState implements it.
type FrameStateManager interface {
	RegisterEndOfFrame(l render.EndOfFrameListener)
}

// Capabilities describes what the renderer supports. It is resolved once when
// the renderer starts and shared by every node through Env.
type Capabilities struct {
	PointSprites bool
}

// TextureDefaults apply to texture stages that have no TextureProperties node.
type TextureDefaults struct {
	UseMipMaps        bool
	AnisotropicDegree float32
}

// Env carries the collaborators a node needs once it is constructed. A nil
// FrameState runs end-of-frame work immediately, and a nil Reporter logs
// through slog.
type Env struct {
	FrameState FrameStateManager
	Reporter   ErrorReporter
	Caps       Capabilities
	Textures   TextureDefaults
}

// DefaultEnv returns an Env with point sprites enabled and no frame state.
func DefaultEnv() *Env {
	return &Env{Caps: Capabilities{PointSprites: true}}
}

func envOr(e *Env) *Env {
	if e == nil {
		return DefaultEnv()
	}
	return e
}

// endOfFrame arms l for the end of the current frame. It must not be called
// with a node lock held.
func (e *Env) endOfFrame(l render.EndOfFrameListener) {
	if e.FrameState == nil {
		l.AllEventsComplete()
		return
	}
	e.FrameState.RegisterEndOfFrame(l)
}

func (e *Env) warn(node string, err error) {
	e.reporter().Report(Report{Severity: SeverityWarning, Node: node, Err: err})
}

func (e *Env) reportError(node string, err error) {
	e.reporter().Report(Report{Severity: SeverityError, Node: node, Err: err})
}

func (e *Env) reporter() ErrorReporter {
	if e.Reporter == nil {
		return NewSlogReporter(nil)
	}
	return e.Reporter
}
