package tessellate_test

import (
	"math"
	"testing"

	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/kernel"
	"github.com/chazu/vellum/pkg/kernel/sdfx"
	"github.com/chazu/vellum/pkg/tessellate"
)

// circle is an exact signed distance field.
type circle struct {
	center graphic.DVec2
	radius float64
}

func (c circle) Bounds() (graphic.DVec2, graphic.DVec2) {
	r := graphic.DVec2{X: c.radius, Y: c.radius}
	return c.center.Sub(r), c.center.Add(r)
}

func (c circle) Distance(p graphic.DVec2) float64 {
	return math.Hypot(p.X-c.center.X, p.Y-c.center.Y) - c.radius
}

// annulus is a ring between two radii.
type annulus struct{ inner, outer float64 }

func (a annulus) Bounds() (graphic.DVec2, graphic.DVec2) {
	return graphic.DVec2{X: -a.outer, Y: -a.outer}, graphic.DVec2{X: a.outer, Y: a.outer}
}

func (a annulus) Distance(p graphic.DVec2) float64 {
	r := math.Hypot(p.X, p.Y)
	return math.Max(r-a.outer, a.inner-r)
}

// pair is the union of two shapes.
type pair struct{ a, b kernel.Shape }

func (p pair) Bounds() (graphic.DVec2, graphic.DVec2) {
	alo, ahi := p.a.Bounds()
	blo, bhi := p.b.Bounds()
	return graphic.DVec2{X: math.Min(alo.X, blo.X), Y: math.Min(alo.Y, blo.Y)},
		graphic.DVec2{X: math.Max(ahi.X, bhi.X), Y: math.Max(ahi.Y, bhi.Y)}
}

func (p pair) Distance(q graphic.DVec2) float64 {
	return math.Min(p.a.Distance(q), p.b.Distance(q))
}

func TestCircleContourIsClosedNearRadius(t *testing.T) {
	c := circle{center: graphic.DVec2{X: 5, Y: -3}, radius: 10}
	contours := tessellate.Contours(c, 64)
	if len(contours) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(contours))
	}
	sp := contours[0]
	if !sp.Closed {
		t.Fatal("contour is not closed")
	}
	if len(sp.Groups) < 16 {
		t.Fatalf("expected a dense contour, got %d points", len(sp.Groups))
	}
	step := 20.0 / 64
	for _, g := range sp.Groups {
		r := math.Hypot(g.Anchor.X-c.center.X, g.Anchor.Y-c.center.Y)
		if math.Abs(r-c.radius) > step {
			t.Fatalf("point %v at radius %f, want within %f of %f", g.Anchor, r, step, c.radius)
		}
	}
}

func TestContourOrientation(t *testing.T) {
	contours := tessellate.Contours(annulus{inner: 4, outer: 10}, 80)
	if len(contours) != 2 {
		t.Fatalf("expected outer and inner contours, got %d", len(contours))
	}
	var areas []float64
	for _, sp := range contours {
		pts := make([]graphic.DVec2, len(sp.Groups))
		for i, g := range sp.Groups {
			pts[i] = g.Anchor
		}
		areas = append(areas, tessellate.SignedArea(pts))
	}
	if areas[0]*areas[1] >= 0 {
		t.Fatalf("expected opposite orientations, got areas %v", areas)
	}
	outer := math.Max(math.Abs(areas[0]), math.Abs(areas[1]))
	if math.Abs(outer-math.Pi*100) > 5 {
		t.Errorf("outer area %f, want ~%f", outer, math.Pi*100)
	}
}

func TestDisjointShapes(t *testing.T) {
	p := pair{
		a: circle{center: graphic.DVec2{X: -10}, radius: 3},
		b: circle{center: graphic.DVec2{X: 10}, radius: 3},
	}
	if got := len(tessellate.Contours(p, 100)); got != 2 {
		t.Fatalf("expected 2 contours, got %d", got)
	}
}

func TestEmptyBounds(t *testing.T) {
	if got := tessellate.Contours(circle{radius: 0}, 10); got != nil {
		t.Fatalf("expected nil for degenerate bounds, got %v", got)
	}
}

func TestDefaultCells(t *testing.T) {
	a := tessellate.Contours(circle{radius: 1}, 0)
	b := tessellate.Contours(circle{radius: 1}, tessellate.DefaultCells)
	if len(a) != 1 || len(a[0].Groups) != len(b[0].Groups) {
		t.Fatalf("cells < 1 should use DefaultCells")
	}
}

func TestRectangleSimplifiesToCorners(t *testing.T) {
	k := sdfx.New()
	v := tessellate.Outline(k.Rectangle(graphic.DVec2{X: 40, Y: 20}), 64)
	if len(v.Subpaths) != 1 {
		t.Fatalf("expected 1 subpath, got %d", len(v.Subpaths))
	}
	// Straight runs collapse; only points near the corners remain.
	if n := len(v.Subpaths[0].Groups); n > 16 {
		t.Errorf("expected a simplified outline, got %d points", n)
	}
	lo, hi, ok := v.Bounds()
	if !ok {
		t.Fatal("outline has no bounds")
	}
	if math.Abs(lo.X) > 1 || math.Abs(lo.Y) > 1 || math.Abs(hi.X-40) > 1 || math.Abs(hi.Y-20) > 1 {
		t.Errorf("bounds %v..%v, want ~(0,0)..(40,20)", lo, hi)
	}
}
