package graphic

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/gg"
)

// PointID identifies a manipulator group across edits.
type PointID uint64

// ManipulatorGroup is an anchor with optional incoming and outgoing Bézier
// handles.
type ManipulatorGroup struct {
	Anchor    DVec2
	InHandle  *DVec2
	OutHandle *DVec2
	ID        PointID
}

// Subpath is a connected run of cubic Bézier segments.
type Subpath struct {
	Groups []ManipulatorGroup
	Closed bool
}

// Polyline builds a subpath with straight segments through pts.
func Polyline(pts []DVec2, closed bool) Subpath {
	s := Subpath{Groups: make([]ManipulatorGroup, len(pts)), Closed: closed}
	for i, p := range pts {
		s.Groups[i] = ManipulatorGroup{Anchor: p, ID: PointID(i + 1)}
	}
	return s
}

// RectangleSubpath returns an axis-aligned closed rectangle.
func RectangleSubpath(min, max DVec2) Subpath {
	return Polyline([]DVec2{
		{X: min.X, Y: min.Y},
		{X: max.X, Y: min.Y},
		{X: max.X, Y: max.Y},
		{X: min.X, Y: max.Y},
	}, true)
}

// circle approximation constant for quarter arcs
const kappa = 0.5522847498307936

// EllipseSubpath returns a closed ellipse made of four cubic segments.
func EllipseSubpath(center, radii DVec2) Subpath {
	kx, ky := radii.X*kappa, radii.Y*kappa
	anchors := []DVec2{
		{X: center.X + radii.X, Y: center.Y},
		{X: center.X, Y: center.Y + radii.Y},
		{X: center.X - radii.X, Y: center.Y},
		{X: center.X, Y: center.Y - radii.Y},
	}
	tangents := []DVec2{{X: 0, Y: ky}, {X: -kx, Y: 0}, {X: 0, Y: -ky}, {X: kx, Y: 0}}
	s := Subpath{Closed: true}
	for i, a := range anchors {
		in := a.Sub(tangents[i])
		out := a.Add(tangents[i])
		s.Groups = append(s.Groups, ManipulatorGroup{Anchor: a, InHandle: &in, OutHandle: &out, ID: PointID(i + 1)})
	}
	return s
}

// ArcSubpath returns a circular arc from start sweeping by sweep radians.
// ArcClosed joins the ends with a chord, ArcPieSlice through the center.
func ArcSubpath(center DVec2, radius, start, sweep float64, kind ArcType) Subpath {
	segments := max(1, int(math.Ceil(math.Abs(sweep)/(math.Pi/2))))
	step := sweep / float64(segments)
	k := 4.0 / 3.0 * math.Tan(step/4) * radius

	at := func(a float64) (DVec2, DVec2) {
		p := DVec2{X: center.X + radius*math.Cos(a), Y: center.Y + radius*math.Sin(a)}
		tangent := DVec2{X: -math.Sin(a) * k, Y: math.Cos(a) * k}
		return p, tangent
	}

	var s Subpath
	if kind == ArcPieSlice {
		s.Groups = append(s.Groups, ManipulatorGroup{Anchor: center})
	}
	for i := 0; i <= segments; i++ {
		p, t := at(start + float64(i)*step)
		g := ManipulatorGroup{Anchor: p}
		if i > 0 {
			in := p.Sub(t)
			g.InHandle = &in
		}
		if i < segments {
			out := p.Add(t)
			g.OutHandle = &out
		}
		s.Groups = append(s.Groups, g)
	}
	for i := range s.Groups {
		s.Groups[i].ID = PointID(i + 1)
	}
	s.Closed = kind != ArcOpen
	return s
}

// Transformed applies m to every anchor and handle.
func (s Subpath) Transformed(m DAffine2) Subpath {
	out := Subpath{Groups: make([]ManipulatorGroup, len(s.Groups)), Closed: s.Closed}
	for i, g := range s.Groups {
		ng := ManipulatorGroup{Anchor: m.TransformPoint(g.Anchor), ID: g.ID}
		if g.InHandle != nil {
			p := m.TransformPoint(*g.InHandle)
			ng.InHandle = &p
		}
		if g.OutHandle != nil {
			p := m.TransformPoint(*g.OutHandle)
			ng.OutHandle = &p
		}
		out.Groups[i] = ng
	}
	return out
}

// Bounds returns the bounding box of anchors and handles.
func (s Subpath) Bounds() (lo, hi DVec2, ok bool) {
	lo = DVec2{X: math.Inf(1), Y: math.Inf(1)}
	hi = DVec2{X: math.Inf(-1), Y: math.Inf(-1)}
	grow := func(p DVec2) {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
		ok = true
	}
	for _, g := range s.Groups {
		grow(g.Anchor)
		if g.InHandle != nil {
			grow(*g.InHandle)
		}
		if g.OutHandle != nil {
			grow(*g.OutHandle)
		}
	}
	return lo, hi, ok
}

// Segment visits each segment as start, control points and end. For
// straight segments the control points equal the endpoints.
func (s Subpath) Segment(visit func(p0, c0, c1, p1 DVec2)) {
	n := len(s.Groups)
	if n < 2 {
		return
	}
	last := n - 1
	if s.Closed {
		last = n
	}
	for i := 0; i < last; i++ {
		a, b := s.Groups[i], s.Groups[(i+1)%n]
		c0, c1 := a.Anchor, b.Anchor
		if a.OutHandle != nil {
			c0 = *a.OutHandle
		}
		if b.InHandle != nil {
			c1 = *b.InHandle
		}
		visit(a.Anchor, c0, c1, b.Anchor)
	}
}

// PathData renders s as SVG path data.
func (s Subpath) PathData() string {
	if len(s.Groups) == 0 {
		return ""
	}
	var b strings.Builder
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	first := s.Groups[0].Anchor
	fmt.Fprintf(&b, "M%s %s", f(first.X), f(first.Y))
	s.Segment(func(p0, c0, c1, p1 DVec2) {
		if c0 == p0 && c1 == p1 {
			fmt.Fprintf(&b, " L%s %s", f(p1.X), f(p1.Y))
			return
		}
		fmt.Fprintf(&b, " C%s %s %s %s %s %s", f(c0.X), f(c0.Y), f(c1.X), f(c1.Y), f(p1.X), f(p1.Y))
	})
	if s.Closed {
		b.WriteString(" Z")
	}
	return b.String()
}

// Trace appends s to the current path of ctx.
func (s Subpath) Trace(ctx *gg.Context) {
	if len(s.Groups) == 0 {
		return
	}
	first := s.Groups[0].Anchor
	ctx.MoveTo(first.X, first.Y)
	s.Segment(func(p0, c0, c1, p1 DVec2) {
		if c0 == p0 && c1 == p1 {
			ctx.LineTo(p1.X, p1.Y)
			return
		}
		ctx.CubicTo(c0.X, c0.Y, c1.X, c1.Y, p1.X, p1.Y)
	})
	if s.Closed {
		ctx.ClosePath()
	}
}

// Fill is a paint fill: nothing, a solid color, or a gradient.
type Fill struct {
	Choice   FillChoice
	Color    Color
	Gradient Gradient
}

// SolidFill wraps c as a solid fill.
func SolidFill(c Color) Fill { return Fill{Choice: FillSolid, Color: c} }

// GradientFill wraps g as a gradient fill.
func GradientFill(g Gradient) Fill { return Fill{Choice: FillGradient, Gradient: g} }

// Stroke describes how a path outline is painted.
type Stroke struct {
	Color          *Color
	Weight         float64
	DashLengths    []float64
	DashOffset     float64
	Cap            StrokeCap
	Join           StrokeJoin
	JoinMiterLimit float64
	Align          StrokeAlign
	Transform      DAffine2
	PaintOrder     PaintOrder
}

// Default returns a black hairline-free stroke.
func (Stroke) Default() Stroke {
	black := Black
	return Stroke{
		Color:          &black,
		Weight:         0,
		Cap:            CapButt,
		Join:           JoinMiter,
		JoinMiterLimit: 4,
		Transform:      gg.Identity(),
	}
}

// Style is the paint applied to vector data.
type Style struct {
	Fill   Fill
	Stroke *Stroke
}

// VectorData is a set of subpaths sharing one style.
type VectorData struct {
	Subpaths []Subpath
	Style    Style
}

// VectorFromSubpaths wraps subpaths with an empty style.
func VectorFromSubpaths(subpaths ...Subpath) VectorData {
	return VectorData{Subpaths: subpaths}
}

// Bounds returns the bounding box of all subpaths.
func (v VectorData) Bounds() (lo, hi DVec2, ok bool) {
	for _, s := range v.Subpaths {
		l, h, sok := s.Bounds()
		if !sok {
			continue
		}
		if !ok {
			lo, hi, ok = l, h, true
			continue
		}
		lo.X, lo.Y = math.Min(lo.X, l.X), math.Min(lo.Y, l.Y)
		hi.X, hi.Y = math.Max(hi.X, h.X), math.Max(hi.Y, h.Y)
	}
	return lo, hi, ok
}

// Transformed applies m to all subpaths.
func (v VectorData) Transformed(m DAffine2) VectorData {
	out := VectorData{Subpaths: make([]Subpath, len(v.Subpaths)), Style: v.Style}
	for i, s := range v.Subpaths {
		out.Subpaths[i] = s.Transformed(m)
	}
	return out
}

// PointIDs returns the IDs of every manipulator group in order.
func (v VectorData) PointIDs() []PointID {
	var ids []PointID
	for _, s := range v.Subpaths {
		for _, g := range s.Groups {
			ids = append(ids, g.ID)
		}
	}
	return ids
}
