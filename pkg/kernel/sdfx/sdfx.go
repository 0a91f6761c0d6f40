// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/kernel"
	"github.com/chazu/vellum/pkg/tessellate"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// arcSegments controls how finely arcs are approximated as polygons.
const arcSegments = 64

// sdfxShape wraps an sdf.SDF2 to implement kernel.Shape.
type sdfxShape struct {
	s sdf.SDF2
}

// Bounds returns the axis-aligned bounding box.
func (s *sdfxShape) Bounds() (min, max graphic.DVec2) {
	bb := s.s.BoundingBox()
	return graphic.DVec2{X: bb.Min.X, Y: bb.Min.Y}, graphic.DVec2{X: bb.Max.X, Y: bb.Max.Y}
}

// Distance evaluates the field at p.
func (s *sdfxShape) Distance(p graphic.DVec2) float64 {
	return s.s.Evaluate(v2.Vec{X: p.X, Y: p.Y})
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	// Cells is the outline grid resolution; zero uses the tessellator default.
	Cells int
}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying sdf.SDF2 from a kernel.Shape. Shapes from
// other kernels are sampled through their Distance method.
func unwrap(s kernel.Shape) sdf.SDF2 {
	if w, ok := s.(*sdfxShape); ok {
		return w.s
	}
	return foreign{s}
}

// wrap creates a kernel.Shape from an sdf.SDF2.
func wrap(s sdf.SDF2) kernel.Shape {
	return &sdfxShape{s: s}
}

func toVecs(pts []graphic.DVec2) []v2.Vec {
	out := make([]v2.Vec, len(pts))
	for i, p := range pts {
		out[i] = v2.Vec{X: p.X, Y: p.Y}
	}
	return out
}

// Rectangle creates a rectangle with its minimum corner at the origin, so
// that a translation places the corner where a user expects.
func (k *SdfxKernel) Rectangle(size graphic.DVec2) kernel.Shape {
	s, err := sdf.Polygon2D(toVecs([]graphic.DVec2{
		{X: 0, Y: 0}, {X: size.X, Y: 0}, {X: size.X, Y: size.Y}, {X: 0, Y: size.Y},
	}))
	if err != nil {
		panic(fmt.Sprintf("sdfx.Polygon2D: %v", err))
	}
	return wrap(s)
}

// Ellipse creates an ellipse centered on the origin by scaling a unit
// circle.
func (k *SdfxKernel) Ellipse(radii graphic.DVec2) (kernel.Shape, error) {
	if radii.X <= 0 || radii.Y <= 0 {
		return nil, fmt.Errorf("ellipse radii must be positive, got %v", radii)
	}
	c, err := sdf.Circle2D(1)
	if err != nil {
		return nil, err
	}
	return k.Transform(wrap(c), graphic.DAffine2{A: radii.X, E: radii.Y}), nil
}

// Polygon creates a closed polygon through points.
func (k *SdfxKernel) Polygon(points []graphic.DVec2) (kernel.Shape, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 points, got %d", len(points))
	}
	s, err := sdf.Polygon2D(toVecs(points))
	if err != nil {
		return nil, err
	}
	return wrap(s), nil
}

// Arc creates the region of a circular arc centered on the origin. Closed
// arcs are bounded by their chord, pie slices by two radii. Open arcs have
// no interior.
func (k *SdfxKernel) Arc(radius, start, sweep float64, kind graphic.ArcType) (kernel.Shape, error) {
	if kind == graphic.ArcOpen {
		return nil, kernel.ErrOpenShape
	}
	if radius <= 0 || sweep == 0 {
		return nil, fmt.Errorf("degenerate arc: radius %v sweep %v", radius, sweep)
	}
	sweep = math.Max(-2*math.Pi, math.Min(2*math.Pi, sweep))
	n := max(2, int(math.Ceil(arcSegments*math.Abs(sweep)/(2*math.Pi))))
	var pts []graphic.DVec2
	if kind == graphic.ArcPieSlice && math.Abs(sweep) < 2*math.Pi {
		pts = append(pts, graphic.DVec2{})
	}
	last := n
	if math.Abs(sweep) == 2*math.Pi {
		last = n - 1
	}
	for i := 0; i <= last; i++ {
		a := start + sweep*float64(i)/float64(n)
		pts = append(pts, graphic.DVec2{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
	}
	return k.Polygon(pts)
}

// Union returns the union of two shapes.
func (k *SdfxKernel) Union(a, b kernel.Shape) kernel.Shape {
	return wrap(sdf.Union2D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Shape) kernel.Shape {
	return wrap(sdf.Difference2D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two shapes.
func (k *SdfxKernel) Intersection(a, b kernel.Shape) kernel.Shape {
	return wrap(sdf.Intersect2D(unwrap(a), unwrap(b)))
}

// Transform applies an affine transform to a shape.
func (k *SdfxKernel) Transform(s kernel.Shape, m graphic.DAffine2) kernel.Shape {
	if m.IsIdentity() {
		return s
	}
	return wrap(&transformed{inner: unwrap(s), m: m, inv: m.Invert(), scale: minScale(m)})
}

// ToOutline traces the boundary of a shape with marching squares.
func (k *SdfxKernel) ToOutline(s kernel.Shape) (graphic.VectorData, error) {
	v := tessellate.Outline(s, k.Cells)
	if len(v.Subpaths) == 0 {
		return graphic.VectorData{}, fmt.Errorf("shape has no boundary")
	}
	return v, nil
}

// transformed evaluates an SDF2 through an inverse affine map. Distances
// are scaled by the smallest stretch of m, which keeps the sign exact and
// the magnitude a lower bound.
type transformed struct {
	inner  sdf.SDF2
	m, inv graphic.DAffine2
	scale  float64
}

func (t *transformed) Evaluate(p v2.Vec) float64 {
	q := t.inv.TransformPoint(graphic.DVec2{X: p.X, Y: p.Y})
	return t.inner.Evaluate(v2.Vec{X: q.X, Y: q.Y}) * t.scale
}

func (t *transformed) BoundingBox() sdf.Box2 {
	bb := t.inner.BoundingBox()
	corners := []graphic.DVec2{
		{X: bb.Min.X, Y: bb.Min.Y}, {X: bb.Max.X, Y: bb.Min.Y},
		{X: bb.Max.X, Y: bb.Max.Y}, {X: bb.Min.X, Y: bb.Max.Y},
	}
	out := sdf.Box2{
		Min: v2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		Max: v2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, c := range corners {
		p := t.m.TransformPoint(c)
		out.Min.X, out.Min.Y = math.Min(out.Min.X, p.X), math.Min(out.Min.Y, p.Y)
		out.Max.X, out.Max.Y = math.Max(out.Max.X, p.X), math.Max(out.Max.Y, p.Y)
	}
	return out
}

// minScale returns the smaller singular value of the linear part of m.
func minScale(m graphic.DAffine2) float64 {
	a := m.A*m.A + m.D*m.D
	b := m.A*m.B + m.D*m.E
	c := m.B*m.B + m.E*m.E
	mean := (a + c) / 2
	disc := math.Sqrt(math.Max(0, mean*mean-(a*c-b*b)))
	return math.Sqrt(math.Max(0, mean-disc))
}

// foreign adapts a shape from another kernel.
type foreign struct{ s kernel.Shape }

func (f foreign) Evaluate(p v2.Vec) float64 { return f.s.Distance(graphic.DVec2{X: p.X, Y: p.Y}) }

func (f foreign) BoundingBox() sdf.Box2 {
	lo, hi := f.s.Bounds()
	return sdf.Box2{Min: v2.Vec{X: lo.X, Y: lo.Y}, Max: v2.Vec{X: hi.X, Y: hi.Y}}
}
