package kernel

import (
	"math"
	"testing"

	"github.com/chazu/vellum/pkg/graphic"
)

func TestFlattenPolyline(t *testing.T) {
	tests := []struct {
		name string
		sp   graphic.Subpath
		want int
	}{
		{"empty", graphic.Subpath{}, 0},
		{"open line", graphic.Polyline([]graphic.DVec2{{X: 0, Y: 0}, {X: 1, Y: 0}}, false), 2},
		{"rectangle", graphic.RectangleSubpath(graphic.DVec2{}, graphic.DVec2{X: 2, Y: 1}), 4},
		{"ellipse", graphic.EllipseSubpath(graphic.DVec2{}, graphic.DVec2{X: 1, Y: 1}), 4 * curveSteps},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(Flatten(tt.sp)); got != tt.want {
				t.Errorf("len(Flatten()) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFlattenEllipseStaysOnCircle(t *testing.T) {
	pts := Flatten(graphic.EllipseSubpath(graphic.DVec2{}, graphic.DVec2{X: 10, Y: 10}))
	for _, p := range pts {
		r := math.Hypot(p.X, p.Y)
		if math.Abs(r-10) > 0.05 {
			t.Fatalf("point %v at radius %f, want ~10", p, r)
		}
	}
}

// recorder is a Kernel stub that records boolean calls.
type recorder struct {
	Kernel
	calls []string
}

type named string

func (named) Bounds() (graphic.DVec2, graphic.DVec2) { return graphic.DVec2{}, graphic.DVec2{} }
func (named) Distance(graphic.DVec2) float64         { return 0 }

func (r *recorder) Union(a, b Shape) Shape {
	r.calls = append(r.calls, "union("+string(a.(named))+","+string(b.(named))+")")
	return named("u")
}

func (r *recorder) Difference(a, b Shape) Shape {
	r.calls = append(r.calls, "diff("+string(a.(named))+","+string(b.(named))+")")
	return named("d")
}

func (r *recorder) Intersection(a, b Shape) Shape {
	r.calls = append(r.calls, "isect("+string(a.(named))+","+string(b.(named))+")")
	return named("i")
}

func TestBooleanDispatch(t *testing.T) {
	tests := []struct {
		op   graphic.BooleanOperation
		want []string
	}{
		{graphic.BooleanUnion, []string{"union(a,b)"}},
		{graphic.BooleanSubtractFront, []string{"diff(a,b)"}},
		{graphic.BooleanSubtractBack, []string{"diff(b,a)"}},
		{graphic.BooleanIntersect, []string{"isect(a,b)"}},
		{graphic.BooleanDifference, []string{"union(a,b)", "isect(a,b)", "diff(u,i)"}},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			r := &recorder{}
			Boolean(r, tt.op, named("a"), named("b"))
			if len(r.calls) != len(tt.want) {
				t.Fatalf("calls = %v, want %v", r.calls, tt.want)
			}
			for i := range tt.want {
				if r.calls[i] != tt.want[i] {
					t.Errorf("call %d = %s, want %s", i, r.calls[i], tt.want[i])
				}
			}
		})
	}
}
