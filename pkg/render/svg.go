package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/gogpu/gg"

	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/memo"
)

// ImageLink is the href an SVG image element uses to refer to an entry of
// RenderOutputData.ImageData. Hosts substitute the real pixels.
func ImageLink(id uint64) string { return fmt.Sprintf("vellum:image/%016x", id) }

// SVG renders g as SVG markup sized to the footprint resolution. Raster
// layers are not inlined; each distinct image is listed once in ImageData
// and referenced through ImageLink.
func SVG(g graphic.GraphicGroup, fp graphic.Footprint) (graph.RenderOutput, error) {
	var buf bytes.Buffer
	w := &svgWriter{canvas: svg.New(&buf), seen: map[uint64]bool{}}

	width, height := viewport(fp)
	w.canvas.Start(width, height)
	w.canvas.Gtransform(matrix(fp.Transform))
	g.Walk(gg.Identity(), w.vector, w.raster)
	w.canvas.Gend()
	w.canvas.End()

	return graph.RenderOutput{
		Data: graph.RenderOutputData{
			Kind:      graph.RenderSvg,
			Svg:       buf.String(),
			ImageData: w.images,
		},
		Metadata: graph.RenderMetadata{Footprint: fp},
	}, nil
}

type svgWriter struct {
	canvas    *svg.SVG
	images    []graph.SvgImage
	seen      map[uint64]bool
	gradients int
}

func (w *svgWriter) vector(v graphic.VectorData, m graphic.DAffine2) {
	parts := make([]string, 0, len(v.Subpaths))
	for _, s := range v.Subpaths {
		if d := s.PathData(); d != "" {
			parts = append(parts, d)
		}
	}
	if len(parts) == 0 {
		return
	}

	attrs := []string{attr("transform", matrix(m))}
	attrs = append(attrs, w.fillAttrs(v.Style.Fill)...)
	attrs = append(attrs, strokeAttrs(v.Style.Stroke)...)
	w.canvas.Path(strings.Join(parts, " "), attrs...)
}

func (w *svgWriter) fillAttrs(f graphic.Fill) []string {
	switch f.Choice {
	case graphic.FillSolid:
		return colorAttrs("fill", f.Color)
	case graphic.FillGradient:
		w.gradients++
		id := "gradient" + strconv.Itoa(w.gradients)
		stops := offcolors(f.Gradient.Stops)
		start := f.Gradient.Transform.TransformPoint(f.Gradient.Start)
		end := f.Gradient.Transform.TransformPoint(f.Gradient.End)
		w.canvas.Def()
		if f.Gradient.Type == graphic.GradientRadial {
			r := math.Hypot(end.X-start.X, end.Y-start.Y)
			w.canvas.RadialGradient(id, percent(start.X), percent(start.Y), percent(r), percent(start.X), percent(start.Y), stops)
		} else {
			w.canvas.LinearGradient(id, percent(start.X), percent(start.Y), percent(end.X), percent(end.Y), stops)
		}
		w.canvas.DefEnd()
		return []string{attr("fill", "url(#"+id+")")}
	default:
		return []string{attr("fill", "none")}
	}
}

func (w *svgWriter) raster(img graphic.Image, m graphic.DAffine2) {
	id := memo.Hash(img)
	if !w.seen[id] {
		w.seen[id] = true
		w.images = append(w.images, graph.SvgImage{ID: id, Image: img})
	}
	w.canvas.Image(0, 0, 1, 1, ImageLink(id),
		attr("transform", matrix(m)),
		attr("preserveAspectRatio", "none"))
}

func strokeAttrs(s *graphic.Stroke) []string {
	if s == nil || s.Color == nil || s.Weight <= 0 {
		return nil
	}
	out := colorAttrs("stroke", *s.Color)
	out = append(out,
		attr("stroke-width", num(s.Weight)),
		attr("stroke-linecap", strings.ToLower(s.Cap.String())),
		attr("stroke-linejoin", strings.ToLower(s.Join.String())),
	)
	if s.Join == graphic.JoinMiter && s.JoinMiterLimit > 0 {
		out = append(out, attr("stroke-miterlimit", num(s.JoinMiterLimit)))
	}
	if len(s.DashLengths) > 0 {
		dash := make([]string, len(s.DashLengths))
		for i, d := range s.DashLengths {
			dash[i] = num(d)
		}
		out = append(out, attr("stroke-dasharray", strings.Join(dash, " ")))
		if s.DashOffset != 0 {
			out = append(out, attr("stroke-dashoffset", num(s.DashOffset)))
		}
	}
	if s.PaintOrder == graphic.StrokeBelow {
		out = append(out, attr("paint-order", "stroke"))
	}
	return out
}

func colorAttrs(name string, c graphic.Color) []string {
	out := []string{attr(name, "#"+c.Hex()[:6])}
	if c.A < 1 {
		out = append(out, attr(name+"-opacity", num(c.A)))
	}
	return out
}

func offcolors(stops graphic.GradientStops) []svg.Offcolor {
	sorted := stops.Sorted()
	out := make([]svg.Offcolor, len(sorted))
	for i, s := range sorted {
		c := graphic.Color(s.Color)
		out[i] = svg.Offcolor{Offset: percent(s.Offset), Color: "#" + c.Hex()[:6], Opacity: c.A}
	}
	return out
}

// percent converts a unit fraction to the whole percentage svgo expects.
func percent(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 100))
}

func viewport(fp graphic.Footprint) (int, int) {
	return int(fp.Resolution.X), int(fp.Resolution.Y)
}

// matrix formats m in SVG order: a b c d e f maps to A D B E C F.
func matrix(m graphic.DAffine2) string {
	return fmt.Sprintf("matrix(%s %s %s %s %s %s)", num(m.A), num(m.D), num(m.B), num(m.E), num(m.C), num(m.F))
}


func attr(name, value string) string { return name + `="` + value + `"` }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// EmbedImages returns the markup of an SVG render output with every image
// link replaced by an inline PNG data URI, for hosts that display the
// markup as a standalone file.
func EmbedImages(out graph.RenderOutput) (string, error) {
	if out.Data.Kind != graph.RenderSvg {
		return "", fmt.Errorf("embed images: output is %s, not svg", out.Data.Kind)
	}
	markup := out.Data.Svg
	for _, img := range out.Data.ImageData {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img.Image.NRGBA()); err != nil {
			return "", fmt.Errorf("embed image %016x: %w", img.ID, err)
		}
		uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
		markup = strings.ReplaceAll(markup, ImageLink(img.ID), uri)
	}
	return markup, nil
}
