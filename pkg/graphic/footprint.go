package graphic

import (
	"math"

	"github.com/gogpu/gg"
)

// Footprint is the viewport a render is requested for: the transform from
// document space to viewport pixels and the viewport resolution.
type Footprint struct {
	Transform  DAffine2
	Resolution UVec2
}

func (Footprint) Default() Footprint {
	return Footprint{Transform: gg.Identity(), Resolution: UVec2{X: 1920, Y: 1080}}
}

// Scale returns the horizontal and vertical zoom of the transform.
func (f Footprint) Scale() DVec2 {
	m := f.Transform
	return DVec2{X: math.Hypot(m.A, m.D), Y: math.Hypot(m.B, m.E)}
}

// ViewportBounds returns the document-space rectangle visible in the
// viewport.
func (f Footprint) ViewportBounds() (lo, hi DVec2) {
	inv := f.Transform.Invert()
	corners := []DVec2{
		inv.TransformPoint(DVec2{}),
		inv.TransformPoint(DVec2{X: float64(f.Resolution.X)}),
		inv.TransformPoint(DVec2{Y: float64(f.Resolution.Y)}),
		inv.TransformPoint(DVec2{X: float64(f.Resolution.X), Y: float64(f.Resolution.Y)}),
	}
	lo, hi = corners[0], corners[0]
	for _, c := range corners[1:] {
		lo.X, lo.Y = math.Min(lo.X, c.X), math.Min(lo.Y, c.Y)
		hi.X, hi.Y = math.Max(hi.X, c.X), math.Max(hi.Y, c.Y)
	}
	return lo, hi
}
