package willow3d

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// drawFPS prints frame rate and draw counts in the top-left corner.
func (s *Scene) drawFPS(screen *ebiten.Image) {
	ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nshapes: %d tris: %d",
		ebiten.ActualFPS(), ebiten.ActualTPS(), s.lastDraw.Shapes, s.lastDraw.Triangles))
}
