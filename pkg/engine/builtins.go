package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"github.com/chazu/vellum/pkg/appio"
	"github.com/chazu/vellum/pkg/dynany"
	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/kernel"
	"github.com/chazu/vellum/pkg/node"
	"github.com/chazu/vellum/pkg/render"
	"github.com/chazu/vellum/pkg/types"
)

// ErrNoEnvironment is returned by builtins that need the execution
// environment when the pass has none.
var ErrNoEnvironment = errors.New("no execution environment")

var (
	tAny      = types.Generic("T")
	tF64      = types.Concrete[float64]()
	tBool     = types.Concrete[bool]()
	tString   = types.Concrete[string]()
	tVec2     = types.Concrete[graphic.DVec2]()
	tColor    = types.Concrete[graphic.Color]()
	tFill     = types.Concrete[graphic.Fill]()
	tFont     = types.Concrete[graphic.Font]()
	tFonts    = types.Concrete[*graphic.FontCache]()
	tCurve    = types.Concrete[graphic.Curve]()
	tStops    = types.Concrete[graphic.GradientStops]()
	tArc      = types.Concrete[graphic.ArcType]()
	tBoolOp   = types.Concrete[graphic.BooleanOperation]()
	tFoot     = types.Concrete[graphic.Footprint]()
	tVector   = types.Concrete[graphic.VectorDataTable]()
	tRaster   = types.Concrete[graphic.RasterDataTable]()
	tGroup    = types.Concrete[graphic.GraphicGroupTable]()
	tRendered = types.Concrete[graph.RenderOutput]()
)

// DefaultLibrary returns a library holding every builtin node.
func DefaultLibrary() *Library {
	l := NewLibrary()
	for _, b := range builtins() {
		if err := l.Register(b); err != nil {
			panic(err)
		}
	}
	return l
}

func builtins() []*Builtin {
	return []*Builtin{
		{Name: "identity", Params: []types.Type{tAny}, Output: tAny, Build: buildIdentity},
		{Name: "context.footprint", Output: tFoot, Build: buildFootprint},

		{Name: "math.add", Params: []types.Type{tF64, tF64}, Output: tF64, Build: binary(func(a, b float64) float64 { return a + b })},
		{Name: "math.multiply", Params: []types.Type{tF64, tF64}, Output: tF64, Build: binary(func(a, b float64) float64 { return a * b })},
		{Name: "math.vec2", Params: []types.Type{tF64, tF64}, Output: tVec2, Build: buildVec2},
		{Name: "math.expression", Params: []types.Type{tString, tF64, tF64, tF64, tF64}, Output: tF64, Build: buildExpression},

		{Name: "shape.rectangle", Params: []types.Type{tVec2}, Output: tVector, Build: buildRectangle},
		{Name: "shape.ellipse", Params: []types.Type{tVec2}, Output: tVector, Build: buildEllipse},
		{Name: "shape.arc", Params: []types.Type{tF64, tF64, tF64, tArc}, Output: tVector, Build: buildArc},
		{Name: "shape.boolean", Params: []types.Type{tVector, tVector, tBoolOp}, Output: tVector, Build: buildBoolean},

		{Name: "transform.translate", Params: []types.Type{tAny, tVec2}, Output: tAny, Build: buildTransform(translate)},
		{Name: "transform.rotate", Params: []types.Type{tAny, tF64}, Output: tAny, Build: buildTransform(rotate)},
		{Name: "transform.scale", Params: []types.Type{tAny, tVec2}, Output: tAny, Build: buildTransform(scale)},

		{Name: "style.fill", Params: []types.Type{tVector, tFill}, Output: tVector, Build: buildFill},
		{Name: "style.stroke", Params: []types.Type{tVector, tColor, tF64}, Output: tVector, Build: buildStroke},
		{Name: "graphic.group", Params: []types.Type{tAny, tAny}, Output: tGroup, Build: buildGroup},

		{Name: "raster.solid", Params: []types.Type{tVec2, tColor}, Output: tRaster, Build: buildSolid},
		{Name: "raster.decode", Params: []types.Type{tString}, Output: tRaster, Build: buildDecode, UsesEnv: true},
		{Name: "raster.blur", Params: []types.Type{tRaster, tF64}, Output: tRaster, Build: buildBlur},
		{Name: "raster.invert", Params: []types.Type{tRaster}, Output: tRaster, Build: buildInvert},
		{Name: "raster.brightness", Params: []types.Type{tRaster, tF64}, Output: tRaster, Build: buildBrightness},
		{Name: "raster.resize", Params: []types.Type{tRaster, tVec2}, Output: tRaster, Build: buildResize},

		{Name: "render.svg", Params: []types.Type{tAny}, Output: tRendered, Build: buildRender(render.SVG)},
		{Name: "render.png", Params: []types.Type{tAny}, Output: tRendered, Build: buildRender(render.PNG)},

		{Name: "text.fonts", Output: tFonts, Build: buildFonts, UsesEnv: true},
		{Name: "text.has_font", Params: []types.Type{tFonts, tFont}, Output: tBool, Build: buildHasFont},

		{Name: "curve.evaluate", Params: []types.Type{tCurve, tF64}, Output: tF64, Build: buildCurve},
		{Name: "gradient.sample", Params: []types.Type{tStops, tF64}, Output: tColor, Build: buildGradientSample},
	}
}

// ---------------------------------------------------------------------------
// General
// ---------------------------------------------------------------------------

func buildIdentity(_ BuildContext, args []node.Node) node.Node {
	return node.FnNode(func(ctx context.Context, _ dynany.Dyn) (dynany.Dyn, error) {
		return poll(ctx, args, 0)
	})
}

// footprintOf reads the call input of a pass as a footprint, falling back
// to the default viewport.
func footprintOf(input dynany.Dyn) graphic.Footprint {
	if fp, ok := dynany.Downcast[graphic.Footprint](input); ok {
		return fp
	}
	return graphic.Footprint{}.Default()
}

func buildFootprint(_ BuildContext, _ []node.Node) node.Node {
	return compute(func(_ context.Context, input dynany.Dyn) (any, error) {
		return footprintOf(input), nil
	})
}

// ---------------------------------------------------------------------------
// Math
// ---------------------------------------------------------------------------

func binary(op func(a, b float64) float64) func(BuildContext, []node.Node) node.Node {
	return func(_ BuildContext, args []node.Node) node.Node {
		return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
			a, err := number(ctx, args, 0)
			if err != nil {
				return nil, err
			}
			b, err := number(ctx, args, 1)
			if err != nil {
				return nil, err
			}
			return op(a, b), nil
		})
	}
}

func buildVec2(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		x, err := number(ctx, args, 0)
		if err != nil {
			return nil, err
		}
		y, err := number(ctx, args, 1)
		if err != nil {
			return nil, err
		}
		return graphic.DVec2{X: x, Y: y}, nil
	})
}

// buildExpression evaluates Lisp source with the numeric inputs bound to
// a, b, c and d.
func buildExpression(bc BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		source, err := arg[string](ctx, args, 0)
		if err != nil {
			return nil, err
		}
		bindings := make([]float64, 0, len(args)-1)
		for i := 1; i < len(args); i++ {
			v, err := number(ctx, args, i)
			if err != nil {
				return nil, err
			}
			bindings = append(bindings, v)
		}
		exprs := bc.Exprs
		if exprs == nil {
			exprs = NewExpressions(0)
		}
		return exprs.Evaluate(ctx, source, bindings...)
	})
}

// ---------------------------------------------------------------------------
// Shapes
// ---------------------------------------------------------------------------

func vectorTable(subpaths ...graphic.Subpath) graphic.VectorDataTable {
	return graphic.NewTable(graphic.VectorFromSubpaths(subpaths...))
}

func buildRectangle(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		size, err := arg[graphic.DVec2](ctx, args, 0)
		if err != nil {
			return nil, err
		}
		return vectorTable(graphic.RectangleSubpath(graphic.DVec2{}, size)), nil
	})
}

func buildEllipse(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		radii, err := arg[graphic.DVec2](ctx, args, 0)
		if err != nil {
			return nil, err
		}
		return vectorTable(graphic.EllipseSubpath(graphic.DVec2{}, radii)), nil
	})
}

// buildArc takes a radius and start and sweep angles in degrees.
func buildArc(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		radius, err := number(ctx, args, 0)
		if err != nil {
			return nil, err
		}
		start, err := number(ctx, args, 1)
		if err != nil {
			return nil, err
		}
		sweep, err := number(ctx, args, 2)
		if err != nil {
			return nil, err
		}
		kind, err := arg[graphic.ArcType](ctx, args, 3)
		if err != nil {
			return nil, err
		}
		rad := math.Pi / 180
		return vectorTable(graphic.ArcSubpath(graphic.DVec2{}, radius, start*rad, sweep*rad, kind)), nil
	})
}

// tableShape unions every instance of t in document space. A nil shape
// means the table is empty.
func tableShape(k kernel.Kernel, t graphic.VectorDataTable) (kernel.Shape, error) {
	var out kernel.Shape
	for i, inst := range t.Instances {
		s, err := kernel.ShapeFromVector(k, inst.Value)
		if err != nil {
			return nil, fmt.Errorf("instance %d: %w", i, err)
		}
		s = k.Transform(s, inst.Transform)
		if out == nil {
			out = s
			continue
		}
		out = k.Union(out, s)
	}
	return out, nil
}

// combine applies op where either side may be empty.
func combine(k kernel.Kernel, op graphic.BooleanOperation, back, front kernel.Shape) kernel.Shape {
	switch {
	case back != nil && front != nil:
		return kernel.Boolean(k, op, back, front)
	case op == graphic.BooleanIntersect:
		return nil
	case back == nil && op == graphic.BooleanSubtractFront:
		return nil
	case front == nil && op == graphic.BooleanSubtractBack:
		return nil
	case back != nil:
		return back
	default:
		return front
	}
}

func buildBoolean(bc BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		if bc.Kernel == nil {
			return nil, errors.New("no geometry kernel")
		}
		back, err := arg[graphic.VectorDataTable](ctx, args, 0)
		if err != nil {
			return nil, err
		}
		front, err := arg[graphic.VectorDataTable](ctx, args, 1)
		if err != nil {
			return nil, err
		}
		op, err := arg[graphic.BooleanOperation](ctx, args, 2)
		if err != nil {
			return nil, err
		}

		bs, err := tableShape(bc.Kernel, back)
		if err != nil {
			return nil, fmt.Errorf("back: %w", err)
		}
		fs, err := tableShape(bc.Kernel, front)
		if err != nil {
			return nil, fmt.Errorf("front: %w", err)
		}
		result := combine(bc.Kernel, op, bs, fs)
		if result == nil {
			return graphic.VectorDataTable{}, nil
		}
		outline, err := bc.Kernel.ToOutline(result)
		if err != nil {
			return nil, err
		}
		if len(back.Instances) > 0 {
			outline.Style = back.Instances[0].Value.Style
		}
		return graphic.NewTable(outline), nil
	})
}

// ---------------------------------------------------------------------------
// Transforms
// ---------------------------------------------------------------------------

func translate(ctx context.Context, args []node.Node) (graphic.DAffine2, error) {
	d, err := arg[graphic.DVec2](ctx, args, 1)
	if err != nil {
		return graphic.DAffine2{}, err
	}
	return gg.Translate(d.X, d.Y), nil
}

// rotate takes degrees.
func rotate(ctx context.Context, args []node.Node) (graphic.DAffine2, error) {
	deg, err := number(ctx, args, 1)
	if err != nil {
		return graphic.DAffine2{}, err
	}
	return gg.Rotate(deg * math.Pi / 180), nil
}

func scale(ctx context.Context, args []node.Node) (graphic.DAffine2, error) {
	s, err := arg[graphic.DVec2](ctx, args, 1)
	if err != nil {
		return graphic.DAffine2{}, err
	}
	return gg.Scale(s.X, s.Y), nil
}

// transformValue applies m on top of the placement of v. Tables transform
// every instance; transforms and vectors compose.
func transformValue(v any, m graphic.DAffine2) (any, error) {
	switch t := v.(type) {
	case graphic.VectorDataTable:
		return t.Transformed(m), nil
	case graphic.RasterDataTable:
		return t.Transformed(m), nil
	case graphic.GraphicGroupTable:
		return t.Transformed(m), nil
	case graphic.DAffine2:
		return m.Multiply(t), nil
	case graphic.DVec2:
		return m.TransformPoint(t), nil
	default:
		return nil, fmt.Errorf("cannot transform %T", v)
	}
}

func buildTransform(matrix func(context.Context, []node.Node) (graphic.DAffine2, error)) func(BuildContext, []node.Node) node.Node {
	return func(_ BuildContext, args []node.Node) node.Node {
		return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
			d, err := poll(ctx, args, 0)
			if err != nil {
				return nil, err
			}
			m, err := matrix(ctx, args)
			if err != nil {
				return nil, err
			}
			return transformValue(d.Elem(), m)
		})
	}
}

// ---------------------------------------------------------------------------
// Styling and grouping
// ---------------------------------------------------------------------------

func restyle(t graphic.VectorDataTable, fn func(*graphic.Style)) graphic.VectorDataTable {
	out := graphic.VectorDataTable{Instances: make([]graphic.Instance[graphic.VectorData], len(t.Instances))}
	for i, inst := range t.Instances {
		fn(&inst.Value.Style)
		out.Instances[i] = inst
	}
	return out
}

func buildFill(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		t, err := arg[graphic.VectorDataTable](ctx, args, 0)
		if err != nil {
			return nil, err
		}
		fill, err := arg[graphic.Fill](ctx, args, 1)
		if err != nil {
			return nil, err
		}
		return restyle(t, func(s *graphic.Style) { s.Fill = fill }), nil
	})
}

func buildStroke(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		t, err := arg[graphic.VectorDataTable](ctx, args, 0)
		if err != nil {
			return nil, err
		}
		c, err := arg[graphic.Color](ctx, args, 1)
		if err != nil {
			return nil, err
		}
		weight, err := number(ctx, args, 2)
		if err != nil {
			return nil, err
		}
		return restyle(t, func(s *graphic.Style) {
			stroke := graphic.Stroke{}.Default()
			stroke.Color = &c
			stroke.Weight = weight
			s.Stroke = &stroke
		}), nil
	})
}

// element wraps a graphical value as a layer. ok is false for None.
func element(v any) (graphic.GraphicElement, bool, error) {
	switch t := v.(type) {
	case types.Unit:
		return graphic.GraphicElement{}, false, nil
	case graphic.VectorDataTable:
		return graphic.VectorElement(t), true, nil
	case graphic.RasterDataTable:
		return graphic.RasterElement(t), true, nil
	case graphic.GraphicGroupTable:
		return graphic.GroupElement(t), true, nil
	case graphic.GraphicElement:
		return t, true, nil
	default:
		return graphic.GraphicElement{}, false, fmt.Errorf("%T is not graphical", v)
	}
}

// AsGroup wraps a graphical value as a group with one layer. None yields
// an empty group.
func AsGroup(v graph.TaggedValue) (graphic.GraphicGroup, error) {
	var g graphic.GraphicGroup
	e, ok, err := element(v.Payload())
	if err != nil {
		return g, err
	}
	if ok {
		g.Elements = append(g.Elements, e)
	}
	return g, nil
}

// buildGroup stacks its inputs, the first at the bottom.
func buildGroup(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		var g graphic.GraphicGroup
		for i := range args {
			d, err := poll(ctx, args, i)
			if err != nil {
				return nil, err
			}
			e, ok, err := element(d.Elem())
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			if ok {
				g.Elements = append(g.Elements, e)
			}
		}
		return graphic.NewTable(g), nil
	})
}

// ---------------------------------------------------------------------------
// Raster
// ---------------------------------------------------------------------------

func buildSolid(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		size, err := arg[graphic.DVec2](ctx, args, 0)
		if err != nil {
			return nil, err
		}
		c, err := arg[graphic.Color](ctx, args, 1)
		if err != nil {
			return nil, err
		}
		if size.X < 0 || size.Y < 0 {
			return nil, fmt.Errorf("negative image size %vx%v", size.X, size.Y)
		}
		return graphic.NewTable(graphic.FillImage(uint32(size.X), uint32(size.Y), c)), nil
	})
}

// buildDecode loads an encoded image through the environment's I/O.
func buildDecode(bc BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		if bc.Env == nil || bc.Env.IO == nil {
			return nil, ErrNoEnvironment
		}
		path, err := arg[string](ctx, args, 0)
		if err != nil {
			return nil, err
		}
		blob, err := bc.Env.IO.LoadResource(ctx, path)
		if err != nil {
			return nil, err
		}
		img, err := render.DecodeImage(blob)
		if err != nil {
			return nil, err
		}
		return graphic.NewTable(img), nil
	})
}

// mapImages applies fn to the pixels of every instance of argument 0.
func mapImages(ctx context.Context, args []node.Node, fn func(image.Image) image.Image) (graphic.RasterDataTable, error) {
	t, err := arg[graphic.RasterDataTable](ctx, args, 0)
	if err != nil {
		return graphic.RasterDataTable{}, err
	}
	out := graphic.RasterDataTable{Instances: make([]graphic.Instance[graphic.Image], len(t.Instances))}
	for i, inst := range t.Instances {
		if inst.Value.Width > 0 && inst.Value.Height > 0 {
			inst.Value = graphic.ImageFromGo(fn(inst.Value.NRGBA()))
		}
		out.Instances[i] = inst
	}
	return out, nil
}

func buildBlur(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		radius, err := number(ctx, args, 1)
		if err != nil {
			return nil, err
		}
		return mapImages(ctx, args, func(img image.Image) image.Image {
			if radius <= 0 {
				return img
			}
			return blur.Gaussian(img, radius)
		})
	})
}

func buildInvert(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		return mapImages(ctx, args, func(img image.Image) image.Image { return effect.Invert(img) })
	})
}

// buildBrightness shifts brightness by a change in [-1, 1].
func buildBrightness(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		change, err := number(ctx, args, 1)
		if err != nil {
			return nil, err
		}
		change = math.Max(-1, math.Min(1, change))
		return mapImages(ctx, args, func(img image.Image) image.Image { return adjust.Brightness(img, change) })
	})
}

func buildResize(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		size, err := arg[graphic.DVec2](ctx, args, 1)
		if err != nil {
			return nil, err
		}
		w, h := int(math.Round(size.X)), int(math.Round(size.Y))
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("resize to %dx%d: size must be positive", w, h)
		}
		return mapImages(ctx, args, func(img image.Image) image.Image {
			dst := image.NewNRGBA(image.Rect(0, 0, w, h))
			draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
			return dst
		})
	})
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// buildRender renders argument 0 for the footprint given as call input.
func buildRender(fn func(graphic.GraphicGroup, graphic.Footprint) (graph.RenderOutput, error)) func(BuildContext, []node.Node) node.Node {
	return func(_ BuildContext, args []node.Node) node.Node {
		return compute(func(ctx context.Context, input dynany.Dyn) (any, error) {
			d, err := poll(ctx, args, 0)
			if err != nil {
				return nil, err
			}
			var g graphic.GraphicGroup
			e, ok, err := element(d.Elem())
			if err != nil {
				return nil, err
			}
			if ok {
				g.Elements = append(g.Elements, e)
			}
			return fn(g, footprintOf(input))
		})
	}
}

// ---------------------------------------------------------------------------
// Text, curves and gradients
// ---------------------------------------------------------------------------

// buildFonts hands out the environment's font cache by reference.
func buildFonts(bc BuildContext, _ []node.Node) node.Node {
	if bc.Env == nil {
		return node.FnNode(func(context.Context, dynany.Dyn) (dynany.Dyn, error) {
			return dynany.Dyn{}, ErrNoEnvironment
		})
	}
	return graph.NewUpcastAsRefNode[*appio.Environment, *graphic.FontCache](bc.Env)
}

func buildHasFont(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		fonts, err := arg[*graphic.FontCache](ctx, args, 0)
		if err != nil {
			return nil, err
		}
		font, err := arg[graphic.Font](ctx, args, 1)
		if err != nil {
			return nil, err
		}
		if fonts == nil {
			return false, nil
		}
		_, ok := fonts.Get(font)
		return ok, nil
	})
}

func buildCurve(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		c, err := arg[graphic.Curve](ctx, args, 0)
		if err != nil {
			return nil, err
		}
		x, err := number(ctx, args, 1)
		if err != nil {
			return nil, err
		}
		return c.Evaluate(x), nil
	})
}

func buildGradientSample(_ BuildContext, args []node.Node) node.Node {
	return compute(func(ctx context.Context, _ dynany.Dyn) (any, error) {
		stops, err := arg[graphic.GradientStops](ctx, args, 0)
		if err != nil {
			return nil, err
		}
		t, err := number(ctx, args, 1)
		if err != nil {
			return nil, err
		}
		return stops.Evaluate(t), nil
	})
}
