package render

import "github.com/go-gl/mathgl/mgl32"

// BoundingBox is an axis-aligned box. The zero value is empty.
type BoundingBox struct {
	Min, Max mgl32.Vec3
	valid    bool
}

// NewBoundingBox returns the box centred on center with the given edge lengths.
func NewBoundingBox(center, size mgl32.Vec3) BoundingBox {
	half := size.Mul(0.5)
	return BoundingBox{Min: center.Sub(half), Max: center.Add(half), valid: true}
}

// BoundsOf returns the smallest box containing pts.
func BoundsOf(pts []mgl32.Vec3) BoundingBox {
	if len(pts) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{Min: pts[0], Max: pts[0], valid: true}
	for _, p := range pts[1:] {
		b = b.Extend(p)
	}
	return b
}

// IsEmpty reports whether the box contains nothing.
func (b BoundingBox) IsEmpty() bool { return !b.valid }

// Center returns the midpoint of the box.
func (b BoundingBox) Center() mgl32.Vec3 { return b.Min.Add(b.Max).Mul(0.5) }

// Size returns the edge lengths of the box.
func (b BoundingBox) Size() mgl32.Vec3 { return b.Max.Sub(b.Min) }

// Extend returns the box grown to include p.
func (b BoundingBox) Extend(p mgl32.Vec3) BoundingBox {
	if !b.valid {
		return BoundingBox{Min: p, Max: p, valid: true}
	}
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	if !o.valid {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}
