package graph

import (
	"fmt"
	"reflect"

	"github.com/gogpu/gg"

	"github.com/chazu/vellum/pkg/appio"
	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/types"
)

type capability uint8

const (
	// capShared payloads are pointers to immutable shared caches; recovery
	// from a shared reference shares the pointer instead of cloning.
	capShared capability = 1 << iota
	// capTransient payloads cannot be persisted.
	capTransient
)

// variant is one row of the dispatch table.
type variant struct {
	kind    Kind
	name    string
	aliases []string
	typ     reflect.Type
	zero    func() any
	flags   capability
}

func (e *variant) wrap(v any) TaggedValue { return TaggedValue{kind: e.kind, payload: v} }

func (e *variant) shared() bool       { return e.flags&capShared != 0 }
func (e *variant) serializable() bool { return e.flags&capTransient == 0 }

type defaulter[T any] interface {
	Default() T
}

type option func(*variant)

func aliases(names ...string) option { return func(e *variant) { e.aliases = names } }

func flags(c capability) option { return func(e *variant) { e.flags |= c } }

func defaultsTo[T any](fn func() T) option {
	return func(e *variant) { e.zero = func() any { return fn() } }
}

func def[T any](k Kind, name string, opts ...option) *variant {
	e := &variant{
		kind: k,
		name: name,
		typ:  reflect.TypeFor[T](),
		zero: func() any {
			var zero T
			if d, ok := any(zero).(defaulter[T]); ok {
				return d.Default()
			}
			return zero
		},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

var (
	registry   [kindCount]*variant
	byType     map[reflect.Type]*variant
	byName     map[string]*variant
	matchOrder []*variant
)

func init() {
	table := []*variant{
		def[types.Unit](KindNone, "None"),
		def[float64](KindF64, "F64", aliases("F32")),
		def[uint32](KindU32, "U32"),
		def[uint64](KindU64, "U64"),
		def[bool](KindBool, "Bool"),
		def[string](KindString, "String"),
		def[graphic.DVec2](KindDVec2, "DVec2", aliases("IVec2", "UVec2")),
		def[graphic.DAffine2](KindDAffine2, "DAffine2", defaultsTo(gg.Identity)),
		def[*float64](KindOptionalF64, "OptionalF64"),
		def[*graphic.DVec2](KindOptionalDVec2, "OptionalDVec2"),
		def[[]float64](KindVecF64, "VecF64", aliases("VecF32")),
		def[[]uint64](KindVecU64, "VecU64"),
		def[[]graphic.DVec2](KindVecDVec2, "VecDVec2"),
		def[[4]float64](KindF64Array4, "F64Array4"),
		def[NodePath](KindNodePath, "NodePath"),
		def[[]graphic.PointID](KindPointIds, "PointIds", aliases("ManipulatorGroupIds")),
		def[graphic.GraphicElement](KindGraphicElement, "GraphicElement"),
		def[graphic.VectorDataTable](KindVectorData, "VectorData"),
		def[graphic.RasterDataTable](KindRasterData, "RasterData", aliases("ImageFrame")),
		def[graphic.GraphicGroupTable](KindGraphicGroup, "GraphicGroup"),
		def[graphic.ArtboardGroupTable](KindArtboardGroup, "ArtboardGroup"),
		def[graphic.Artboard](KindArtboard, "Artboard"),
		def[graphic.Image](KindImage, "Image"),
		def[graphic.Color](KindColor, "Color"),
		def[*graphic.Color](KindOptionalColor, "OptionalColor"),
		def[[]graphic.Color](KindPalette, "Palette"),
		def[[]graphic.Subpath](KindSubpaths, "Subpaths"),
		def[graphic.Fill](KindFill, "Fill"),
		def[graphic.Stroke](KindStroke, "Stroke"),
		def[graphic.Gradient](KindGradient, "Gradient"),
		def[graphic.GradientStops](KindGradientStops, "GradientStops", aliases("GradientPositions")),
		def[graphic.Font](KindFont, "Font"),
		def[[]graphic.BrushStroke](KindBrushStrokes, "BrushStrokes"),
		def[*graphic.BrushCache](KindBrushCache, "BrushCache", flags(capShared), defaultsTo(graphic.NewBrushCache)),
		def[DocumentNode](KindDocumentNode, "DocumentNode"),
		def[graphic.Curve](KindCurve, "Curve"),
		def[graphic.Footprint](KindFootprint, "Footprint"),
		def[*graphic.FontCache](KindFontCache, "FontCache", flags(capShared), defaultsTo(graphic.NewFontCache)),
		def[graphic.BlendMode](KindBlendMode, "BlendMode"),
		def[graphic.LuminanceCalculation](KindLuminanceCalculation, "LuminanceCalculation"),
		def[graphic.XY](KindXY, "XY"),
		def[graphic.RedGreenBlue](KindRedGreenBlue, "RedGreenBlue"),
		def[graphic.RedGreenBlueAlpha](KindRedGreenBlueAlpha, "RedGreenBlueAlpha"),
		def[graphic.RealTimeMode](KindRealTimeMode, "RealTimeMode"),
		def[graphic.NoiseType](KindNoiseType, "NoiseType"),
		def[graphic.FractalType](KindFractalType, "FractalType"),
		def[graphic.CellularDistanceFunction](KindCellularDistanceFunction, "CellularDistanceFunction"),
		def[graphic.CellularReturnType](KindCellularReturnType, "CellularReturnType"),
		def[graphic.DomainWarpType](KindDomainWarpType, "DomainWarpType"),
		def[graphic.RelativeAbsolute](KindRelativeAbsolute, "RelativeAbsolute"),
		def[graphic.SelectiveColorChoice](KindSelectiveColorChoice, "SelectiveColorChoice"),
		def[graphic.GridType](KindGridType, "GridType"),
		def[graphic.ArcType](KindArcType, "ArcType"),
		def[graphic.MergeByDistanceAlgorithm](KindMergeByDistanceAlgorithm, "MergeByDistanceAlgorithm"),
		def[graphic.PointSpacingType](KindPointSpacingType, "PointSpacingType"),
		def[graphic.StrokeCap](KindStrokeCap, "StrokeCap", aliases("LineCap")),
		def[graphic.StrokeJoin](KindStrokeJoin, "StrokeJoin", aliases("LineJoin")),
		def[graphic.StrokeAlign](KindStrokeAlign, "StrokeAlign"),
		def[graphic.PaintOrder](KindPaintOrder, "PaintOrder"),
		def[graphic.FillType](KindFillType, "FillType"),
		def[graphic.FillChoice](KindFillChoice, "FillChoice"),
		def[graphic.GradientType](KindGradientType, "GradientType"),
		def[graphic.ReferencePoint](KindReferencePoint, "ReferencePoint"),
		def[graphic.CentroidType](KindCentroidType, "CentroidType"),
		def[graphic.BooleanOperation](KindBooleanOperation, "BooleanOperation"),
		def[graphic.TextAlign](KindTextAlign, "TextAlign"),
		def[RenderOutput](KindRenderOutput, "RenderOutput"),
		def[appio.SurfaceFrame](KindSurfaceFrame, "SurfaceFrame"),
		def[*appio.Environment](KindEditorAPI, "EditorAPI", flags(capShared|capTransient), defaultsTo(appio.NewEnvironment)),
	}
	buildRegistry(table)
}

// buildRegistry indexes the table and checks that kinds and Go types are in
// one-to-one correspondence.
func buildRegistry(table []*variant) {
	if len(table) != int(kindCount) {
		panic(fmt.Sprintf("graph: registry has %d variants, want %d", len(table), kindCount))
	}
	byType = make(map[reflect.Type]*variant, len(table))
	byName = make(map[string]*variant, len(table))
	for i, e := range table {
		if e.kind != Kind(i) {
			panic(fmt.Sprintf("graph: variant %s registered at position %d", e.name, i))
		}
		if prev, dup := byType[e.typ]; dup {
			panic(fmt.Sprintf("graph: %s and %s both map to %s", prev.name, e.name, e.typ))
		}
		byType[e.typ] = e
		for _, n := range append([]string{e.name}, e.aliases...) {
			if _, dup := byName[n]; dup {
				panic(fmt.Sprintf("graph: duplicate variant name %q", n))
			}
			byName[n] = e
		}
		registry[i] = e
	}

	// Recovery order: unit first, then the registered variants, then the
	// two terminal report variants.
	matchOrder = make([]*variant, 0, len(table))
	matchOrder = append(matchOrder, registry[KindNone])
	for _, e := range table {
		switch e.kind {
		case KindNone, KindRenderOutput, KindSurfaceFrame:
			continue
		}
		matchOrder = append(matchOrder, e)
	}
	matchOrder = append(matchOrder, registry[KindRenderOutput], registry[KindSurfaceFrame])
}

// Kinds returns every kind in discriminant order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// KindByName resolves a variant name or a legacy alias.
func KindByName(name string) (Kind, bool) {
	e, ok := byName[name]
	if !ok {
		return 0, false
	}
	return e.kind, true
}

// Serializable reports whether values of k can be persisted.
func (k Kind) Serializable() bool { return k < kindCount && registry[k].serializable() }

// GoType returns the payload type of k.
func (k Kind) GoType() reflect.Type { return registry[k].typ }
