package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gg"

	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/graphic"
)

// ErrEmptyViewport is returned when a raster render is requested for a
// footprint with zero resolution.
var ErrEmptyViewport = errors.New("viewport has no pixels")

// Raster draws g into a transparent image the size of the footprint.
func Raster(g graphic.GraphicGroup, fp graphic.Footprint) (graphic.Image, error) {
	dc, err := paint(g, fp)
	if err != nil {
		return graphic.Image{}, err
	}
	defer dc.Close()
	return graphic.ImageFromGo(dc.Image()), nil
}

// PNG renders g like Raster and returns the encoded PNG bytes.
func PNG(g graphic.GraphicGroup, fp graphic.Footprint) (graph.RenderOutput, error) {
	dc, err := paint(g, fp)
	if err != nil {
		return graph.RenderOutput{}, err
	}
	defer dc.Close()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return graph.RenderOutput{}, fmt.Errorf("encode png: %w", err)
	}
	return graph.RenderOutput{
		Data:     graph.RenderOutputData{Kind: graph.RenderImage, Image: buf.Bytes()},
		Metadata: graph.RenderMetadata{Footprint: fp},
	}, nil
}

func paint(g graphic.GraphicGroup, fp graphic.Footprint) (*gg.Context, error) {
	width, height := viewport(fp)
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyViewport
	}
	dc := gg.NewContext(width, height)
	p := &painter{dc: dc}
	g.Walk(fp.Transform, p.vector, p.raster)
	if p.err != nil {
		dc.Close()
		return nil, p.err
	}
	return dc, nil
}

// painter replays a graphic group onto a gg context. The first drawing
// error stops further output.
type painter struct {
	dc  *gg.Context
	err error
}

func (p *painter) vector(v graphic.VectorData, m graphic.DAffine2) {
	if p.err != nil || len(v.Subpaths) == 0 {
		return
	}
	stroke := v.Style.Stroke
	hasStroke := stroke != nil && stroke.Color != nil && stroke.Weight > 0
	hasFill := v.Style.Fill.Choice != graphic.FillNone

	trace := func() {
		p.dc.SetTransform(m)
		for _, s := range v.Subpaths {
			s.Trace(p.dc)
		}
		p.dc.Identity()
	}

	fill := func() {
		if !hasFill {
			return
		}
		trace()
		p.dc.SetFillRule(gg.FillRuleNonZero)
		p.dc.SetFillBrush(fillBrush(v, m))
		p.fail(p.dc.Fill())
	}
	outline := func() {
		if !hasStroke {
			return
		}
		trace()
		p.dc.SetStrokeBrush(gg.Solid(stroke.Color.ToGG()))
		p.dc.SetLineWidth(stroke.Weight * math.Sqrt(math.Abs(m.A*m.E-m.B*m.D)))
		p.dc.SetLineCap(stroke.Cap.LineCap())
		p.dc.SetLineJoin(stroke.Join.LineJoin())
		if stroke.JoinMiterLimit > 0 {
			p.dc.SetMiterLimit(stroke.JoinMiterLimit)
		}
		p.dc.SetDash(stroke.DashLengths...)
		p.fail(p.dc.Stroke())
	}

	if hasStroke && stroke.PaintOrder == graphic.StrokeBelow {
		outline()
		fill()
		return
	}
	fill()
	outline()
}

func (p *painter) raster(img graphic.Image, m graphic.DAffine2) {
	if p.err != nil || img.Width == 0 || img.Height == 0 {
		return
	}
	// Images occupy the unit square of their instance transform.
	lo, hi := transformedBounds(m, graphic.DVec2{}, graphic.DVec2{X: 1, Y: 1})
	p.dc.Identity()
	p.dc.DrawImageEx(gg.ImageBufFromImage(img.NRGBA()), gg.DrawImageOptions{
		X:         lo.X,
		Y:         lo.Y,
		DstWidth:  hi.X - lo.X,
		DstHeight: hi.Y - lo.Y,
		Opacity:   1,
	})
}

func (p *painter) fail(err error) {
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("draw: %w", err)
	}
}

// fillBrush builds the brush for v in device space. Gradient endpoints are
// fractions of the vector's bounding box.
func fillBrush(v graphic.VectorData, m graphic.DAffine2) gg.Brush {
	f := v.Style.Fill
	if f.Choice != graphic.FillGradient {
		return gg.Solid(f.Color.ToGG())
	}
	lo, hi, _ := v.Bounds()
	at := func(frac graphic.DVec2) graphic.DVec2 {
		frac = f.Gradient.Transform.TransformPoint(frac)
		local := graphic.DVec2{X: lo.X + frac.X*(hi.X-lo.X), Y: lo.Y + frac.Y*(hi.Y-lo.Y)}
		return m.TransformPoint(local)
	}
	start, end := at(f.Gradient.Start), at(f.Gradient.End)
	stops := f.Gradient.Stops.Sorted()

	if f.Gradient.Type == graphic.GradientRadial {
		b := gg.NewRadialGradientBrush(start.X, start.Y, 0, math.Hypot(end.X-start.X, end.Y-start.Y))
		for _, s := range stops {
			b.AddColorStop(s.Offset, s.Color)
		}
		return b
	}
	b := gg.NewLinearGradientBrush(start.X, start.Y, end.X, end.Y)
	for _, s := range stops {
		b.AddColorStop(s.Offset, s.Color)
	}
	return b
}

func transformedBounds(m graphic.DAffine2, lo, hi graphic.DVec2) (graphic.DVec2, graphic.DVec2) {
	corners := []graphic.DVec2{
		m.TransformPoint(lo),
		m.TransformPoint(graphic.DVec2{X: hi.X, Y: lo.Y}),
		m.TransformPoint(graphic.DVec2{X: lo.X, Y: hi.Y}),
		m.TransformPoint(hi),
	}
	min, max := corners[0], corners[0]
	for _, c := range corners[1:] {
		min.X, min.Y = math.Min(min.X, c.X), math.Min(min.Y, c.Y)
		max.X, max.Y = math.Max(max.X, c.X), math.Max(max.Y, c.Y)
	}
	return min, max
}
