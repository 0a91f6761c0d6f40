// Package kernel defines the abstract 2D geometry kernel interface.
// Implementations (sdfx) provide closed regions and boolean operations
// behind this interface. The kernel abstraction allows swapping backends
// without changing the node library.
package kernel

import (
	"errors"

	"github.com/chazu/vellum/pkg/graphic"
)

// ErrOpenShape is returned when asked for the region of an open path.
var ErrOpenShape = errors.New("shape is not closed")

// Shape is an opaque handle to a closed 2D region.
// Implementations wrap their internal representation.
type Shape interface {
	// Bounds returns the axis-aligned bounding box.
	Bounds() (min, max graphic.DVec2)
	// Distance is the signed distance to the boundary, negative inside.
	Distance(p graphic.DVec2) float64
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Rectangle(size graphic.DVec2) Shape
	Ellipse(radii graphic.DVec2) (Shape, error)
	Polygon(points []graphic.DVec2) (Shape, error)
	Arc(radius, start, sweep float64, kind graphic.ArcType) (Shape, error)

	// Boolean operations
	Union(a, b Shape) Shape
	Difference(a, b Shape) Shape
	Intersection(a, b Shape) Shape

	// Transforms
	Transform(s Shape, m graphic.DAffine2) Shape

	// Outline output
	ToOutline(s Shape) (graphic.VectorData, error)
}

// Boolean combines back (the lower shape) and front with op.
func Boolean(k Kernel, op graphic.BooleanOperation, back, front Shape) Shape {
	switch op {
	case graphic.BooleanSubtractFront:
		return k.Difference(back, front)
	case graphic.BooleanSubtractBack:
		return k.Difference(front, back)
	case graphic.BooleanIntersect:
		return k.Intersection(back, front)
	case graphic.BooleanDifference:
		return k.Difference(k.Union(back, front), k.Intersection(back, front))
	default:
		return k.Union(back, front)
	}
}
