package kernel

import (
	"fmt"

	"github.com/chazu/vellum/pkg/graphic"
)

// curveSteps is the number of line segments per flattened cubic.
const curveSteps = 16

// Flatten approximates a subpath by its polyline.
func Flatten(s graphic.Subpath) []graphic.DVec2 {
	if len(s.Groups) == 0 {
		return nil
	}
	pts := []graphic.DVec2{s.Groups[0].Anchor}
	s.Segment(func(p0, c0, c1, p1 graphic.DVec2) {
		if c0 == p0 && c1 == p1 {
			pts = append(pts, p1)
			return
		}
		for i := 1; i <= curveSteps; i++ {
			pts = append(pts, cubicAt(p0, c0, c1, p1, float64(i)/curveSteps))
		}
	})
	if s.Closed && len(pts) > 1 && pts[len(pts)-1] == pts[0] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

func cubicAt(p0, c0, c1, p1 graphic.DVec2, t float64) graphic.DVec2 {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return graphic.DVec2{
		X: a*p0.X + b*c0.X + c*c1.X + d*p1.X,
		Y: a*p0.Y + b*c0.Y + c*c1.Y + d*p1.Y,
	}
}

// ShapeFromVector builds the union of every closed subpath of v. Open
// subpaths have no interior and fail with ErrOpenShape.
func ShapeFromVector(k Kernel, v graphic.VectorData) (Shape, error) {
	var out Shape
	for i, sp := range v.Subpaths {
		if !sp.Closed {
			return nil, fmt.Errorf("subpath %d: %w", i, ErrOpenShape)
		}
		s, err := k.Polygon(Flatten(sp))
		if err != nil {
			return nil, fmt.Errorf("subpath %d: %w", i, err)
		}
		if out == nil {
			out = s
		} else {
			out = k.Union(out, s)
		}
	}
	if out == nil {
		return nil, fmt.Errorf("vector data has no subpaths: %w", ErrOpenShape)
	}
	return out, nil
}
