// Package tessellate extracts closed outlines from a kernel shape by
// marching squares over its signed distance field. One subpath is produced
// per boundary contour.
package tessellate

import (
	"math"

	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/kernel"
)

// DefaultCells is the grid resolution along the longer side of the bounds.
const DefaultCells = 128

// edgeKey names a grid edge: the horizontal or vertical edge leaving
// lattice point (i, j).
type edgeKey struct {
	i, j     int
	vertical bool
}

type segment struct {
	a, b edgeKey
	used bool
}

// grid holds the sampled field on a lattice of (nx+1) x (ny+1) points.
type grid struct {
	origin graphic.DVec2
	step   float64
	nx, ny int
	values []float64
	field  kernel.Shape
}

func (g *grid) at(i, j int) float64 { return g.values[j*(g.nx+1)+i] }

func (g *grid) point(i, j int) graphic.DVec2 {
	return graphic.DVec2{X: g.origin.X + float64(i)*g.step, Y: g.origin.Y + float64(j)*g.step}
}

// crossing interpolates the zero crossing along an edge.
func (g *grid) crossing(k edgeKey) graphic.DVec2 {
	i1, j1 := k.i+1, k.j
	if k.vertical {
		i1, j1 = k.i, k.j+1
	}
	v0, v1 := g.at(k.i, k.j), g.at(i1, j1)
	p0, p1 := g.point(k.i, k.j), g.point(i1, j1)
	t := 0.5
	if d := v0 - v1; d != 0 {
		t = v0 / d
	}
	return graphic.DVec2{X: p0.X + t*(p1.X-p0.X), Y: p0.Y + t*(p1.Y-p0.Y)}
}

// Contours returns the boundary of s as closed polylines. cells sets the
// grid resolution along the longer side; values below 1 use DefaultCells.
func Contours(s kernel.Shape, cells int) []graphic.Subpath {
	if cells < 1 {
		cells = DefaultCells
	}
	lo, hi := s.Bounds()
	w, h := hi.X-lo.X, hi.Y-lo.Y
	if !(w > 0 || h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return nil
	}
	step := math.Max(w, h) / float64(cells)

	// One padding cell on every side keeps contours closed at the bounds.
	g := &grid{
		origin: graphic.DVec2{X: lo.X - step, Y: lo.Y - step},
		step:   step,
		nx:     int(math.Ceil(w/step)) + 2,
		ny:     int(math.Ceil(h/step)) + 2,
		field:  s,
	}
	g.values = make([]float64, (g.nx+1)*(g.ny+1))
	for j := 0; j <= g.ny; j++ {
		for i := 0; i <= g.nx; i++ {
			g.values[j*(g.nx+1)+i] = s.Distance(g.point(i, j))
		}
	}

	segs := march(g)
	return chain(g, segs)
}

// Outline wraps Contours as vector data.
func Outline(s kernel.Shape, cells int) graphic.VectorData {
	return graphic.VectorFromSubpaths(Contours(s, cells)...)
}

// march emits one or two segments per cell that the boundary crosses.
// Corners are numbered counter-clockwise from (i, j); edges 0..3 are
// bottom, right, top and left.
func march(g *grid) []*segment {
	var segs []*segment
	for j := 0; j < g.ny; j++ {
		for i := 0; i < g.nx; i++ {
			c := [4]float64{g.at(i, j), g.at(i+1, j), g.at(i+1, j+1), g.at(i, j+1)}
			idx := 0
			for b, v := range c {
				if v < 0 {
					idx |= 1 << b
				}
			}
			if idx == 0 || idx == 15 {
				continue
			}
			edges := [4]edgeKey{
				{i, j, false},
				{i + 1, j, true},
				{i, j + 1, false},
				{i, j, true},
			}
			for _, pair := range cellSegments(g, i, j, idx) {
				segs = append(segs, &segment{a: edges[pair[0]], b: edges[pair[1]]})
			}
		}
	}
	return segs
}

func cellSegments(g *grid, i, j, idx int) [][2]int {
	switch idx {
	case 1, 14:
		return [][2]int{{3, 0}}
	case 2, 13:
		return [][2]int{{0, 1}}
	case 3, 12:
		return [][2]int{{3, 1}}
	case 4, 11:
		return [][2]int{{1, 2}}
	case 6, 9:
		return [][2]int{{0, 2}}
	case 7, 8:
		return [][2]int{{3, 2}}
	}
	// Saddles: the sign at the cell center decides which corners connect.
	center := g.field.Distance(graphic.DVec2{
		X: g.origin.X + (float64(i)+0.5)*g.step,
		Y: g.origin.Y + (float64(j)+0.5)*g.step,
	})
	insideCenter := center < 0
	if (idx == 5) == insideCenter {
		return [][2]int{{0, 1}, {2, 3}}
	}
	return [][2]int{{3, 0}, {1, 2}}
}

// chain joins segments sharing an edge crossing into closed loops and
// orients each loop with the interior on its left.
func chain(g *grid, segs []*segment) []graphic.Subpath {
	at := make(map[edgeKey][]*segment, len(segs)*2)
	for _, s := range segs {
		at[s.a] = append(at[s.a], s)
		at[s.b] = append(at[s.b], s)
	}

	var out []graphic.Subpath
	for _, start := range segs {
		if start.used {
			continue
		}
		start.used = true
		keys := []edgeKey{start.a, start.b}
		cur := start.b
		for cur != start.a {
			next := nextSegment(at[cur])
			if next == nil {
				break
			}
			next.used = true
			if next.a == cur {
				cur = next.b
			} else {
				cur = next.a
			}
			if cur != start.a {
				keys = append(keys, cur)
			}
		}
		pts := make([]graphic.DVec2, len(keys))
		for i, k := range keys {
			pts[i] = g.crossing(k)
		}
		pts = simplify(pts, g.step*1e-6)
		if len(pts) < 3 {
			continue
		}
		if !interiorOnLeft(g.field, pts, g.step) {
			reverse(pts)
		}
		out = append(out, graphic.Polyline(pts, true))
	}
	return out
}

func nextSegment(candidates []*segment) *segment {
	for _, s := range candidates {
		if !s.used {
			return s
		}
	}
	return nil
}

// simplify drops points that lie on the line through their neighbours.
func simplify(pts []graphic.DVec2, eps float64) []graphic.DVec2 {
	if len(pts) < 4 {
		return pts
	}
	out := make([]graphic.DVec2, 0, len(pts))
	n := len(pts)
	for i := range pts {
		prev, cur, next := pts[(i+n-1)%n], pts[i], pts[(i+1)%n]
		if len(out) > 0 {
			prev = out[len(out)-1]
		}
		cross := (cur.X-prev.X)*(next.Y-prev.Y) - (cur.Y-prev.Y)*(next.X-prev.X)
		if math.Abs(cross) > eps*math.Max(1, math.Hypot(next.X-prev.X, next.Y-prev.Y)) {
			out = append(out, cur)
		}
	}
	return out
}

// interiorOnLeft probes just left of the longest edge.
func interiorOnLeft(s kernel.Shape, pts []graphic.DVec2, step float64) bool {
	best, bestLen := 0, -1.0
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		if l := math.Hypot(b.X-a.X, b.Y-a.Y); l > bestLen {
			best, bestLen = i, l
		}
	}
	a, b := pts[best], pts[(best+1)%len(pts)]
	mid := graphic.DVec2{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	nx, ny := -(b.Y-a.Y)/bestLen, (b.X-a.X)/bestLen
	probe := graphic.DVec2{X: mid.X + nx*step*0.25, Y: mid.Y + ny*step*0.25}
	return s.Distance(probe) < 0
}

func reverse(pts []graphic.DVec2) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}

// SignedArea returns the signed area of a closed polyline, positive when
// counter-clockwise in a y-up frame.
func SignedArea(pts []graphic.DVec2) float64 {
	var a float64
	for i := range pts {
		p, q := pts[i], pts[(i+1)%len(pts)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}
