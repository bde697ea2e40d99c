package willow3d

import (
	"context"
	"log/slog"
	"time"

	"github.com/phanxgames/willow3d/render"
)

// frameStats holds per-frame metrics. Only collected when Scene.debug is true.
type frameStats struct {
	hooks    int
	sched    render.Stats
	boundary time.Duration
}

// debugFrame logs end-of-frame and scheduler stats.
func (s *Scene) debugFrame(st frameStats) {
	if !s.debug {
		return
	}
	s.log.LogAttrs(context.Background(), slog.LevelDebug, "willow3d: frame",
		slog.Int("endOfFrame", st.hooks),
		slog.Int("liveness", st.sched.LivenessChanges),
		slog.Int("bounds", st.sched.BoundsUpdates),
		slog.Int("data", st.sched.DataUpdates),
		slog.Duration("boundary", st.boundary),
	)
}

// debugDraw logs renderer stats.
func (s *Scene) debugDraw(st render.DrawStats, d time.Duration) {
	if !s.debug {
		return
	}
	s.log.LogAttrs(context.Background(), slog.LevelDebug, "willow3d: draw",
		slog.Int("shapes", st.Shapes),
		slog.Int("triangles", st.Triangles),
		slog.Int("culled", st.Culled),
		slog.Int("drawCalls", st.DrawCalls),
		slog.Duration("elapsed", d),
	)
}
