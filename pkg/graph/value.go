package graph

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// Kind is the discriminant of a TaggedValue. The numeric order is the
// hashing order and must only ever be appended to.
type Kind uint16

const (
	KindNone Kind = iota
	KindF64
	KindU32
	KindU64
	KindBool
	KindString
	KindDVec2
	KindDAffine2
	KindOptionalF64
	KindOptionalDVec2
	KindVecF64
	KindVecU64
	KindVecDVec2
	KindF64Array4
	KindNodePath
	KindPointIds
	KindGraphicElement
	KindVectorData
	KindRasterData
	KindGraphicGroup
	KindArtboardGroup
	KindArtboard
	KindImage
	KindColor
	KindOptionalColor
	KindPalette
	KindSubpaths
	KindFill
	KindStroke
	KindGradient
	KindGradientStops
	KindFont
	KindBrushStrokes
	KindBrushCache
	KindDocumentNode
	KindCurve
	KindFootprint
	KindFontCache
	KindBlendMode
	KindLuminanceCalculation
	KindXY
	KindRedGreenBlue
	KindRedGreenBlueAlpha
	KindRealTimeMode
	KindNoiseType
	KindFractalType
	KindCellularDistanceFunction
	KindCellularReturnType
	KindDomainWarpType
	KindRelativeAbsolute
	KindSelectiveColorChoice
	KindGridType
	KindArcType
	KindMergeByDistanceAlgorithm
	KindPointSpacingType
	KindStrokeCap
	KindStrokeJoin
	KindStrokeAlign
	KindPaintOrder
	KindFillType
	KindFillChoice
	KindGradientType
	KindReferencePoint
	KindCentroidType
	KindBooleanOperation
	KindTextAlign
	KindRenderOutput
	KindSurfaceFrame
	KindEditorAPI
	kindCount
)

func (k Kind) String() string {
	if k < kindCount {
		return registry[k].name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

var (
	// ErrUnrepresentable is returned when a type descriptor has no variant.
	ErrUnrepresentable = errors.New("type has no tagged value representation")
	// ErrTypeMismatch is returned when a payload has the wrong Go type.
	ErrTypeMismatch = errors.New("tagged value type mismatch")
)

// TaggedValue is one value of a registered kind. The zero TaggedValue is
// None.
type TaggedValue struct {
	kind    Kind
	payload any
}

// None is the unit value.
var None = TaggedValue{}

// Of wraps v in the variant registered for its Go type.
func Of[T any](v T) (TaggedValue, error) {
	return New(any(v))
}

// MustOf is Of for values whose type is known to be registered.
func MustOf[T any](v T) TaggedValue {
	tv, err := Of(v)
	if err != nil {
		panic(err)
	}
	return tv
}

// New wraps an erased payload in the variant registered for its dynamic
// type.
func New(v any) (TaggedValue, error) {
	if v == nil {
		return None, nil
	}
	e, ok := byType[reflect.TypeOf(v)]
	if !ok {
		return TaggedValue{}, fmt.Errorf("%w: %s", ErrUnrepresentable, reflect.TypeOf(v))
	}
	return e.wrap(v), nil
}

func F64(v float64) TaggedValue { return TaggedValue{kind: KindF64, payload: v} }
func U32(v uint32) TaggedValue { return TaggedValue{kind: KindU32, payload: v} }
func U64(v uint64) TaggedValue { return TaggedValue{kind: KindU64, payload: v} }
func Bool(v bool) TaggedValue { return TaggedValue{kind: KindBool, payload: v} }
func String(v string) TaggedValue { return TaggedValue{kind: KindString, payload: v} }
func VecF64(v []float64) TaggedValue { return TaggedValue{kind: KindVecF64, payload: v} }
func NodePathValue(p NodePath) TaggedValue {
	return TaggedValue{kind: KindNodePath, payload: p}
}

// Kind returns the variant discriminant.
func (v TaggedValue) Kind() Kind { return v.kind }

// Payload returns the boxed payload. None has payload types.Unit{}.
func (v TaggedValue) Payload() any {
	if v.payload == nil {
		return registry[KindNone].zero()
	}
	return v.payload
}

// Payload borrows the payload as a T.
func Payload[T any](v TaggedValue) (T, error) {
	p, ok := v.Payload().(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s holds %T, not %s", ErrTypeMismatch, v.kind, v.Payload(), reflect.TypeFor[T]())
	}
	return p, nil
}

// ToU32 returns the payload of a U32 value. It panics for any other kind.
func (v TaggedValue) ToU32() uint32 {
	if v.kind != KindU32 {
		panic(fmt.Sprintf("graph: ToU32 called on %s", v.kind))
	}
	return v.payload.(uint32)
}

// IsNone reports whether v is the unit value.
func (v TaggedValue) IsNone() bool { return v.kind == KindNone }

// String renders strings, numbers and booleans plainly and every other
// variant by kind name.
func (v TaggedValue) String() string {
	switch v.kind {
	case KindString:
		return v.payload.(string)
	case KindU32:
		return strconv.FormatUint(uint64(v.payload.(uint32)), 10)
	case KindU64:
		return strconv.FormatUint(v.payload.(uint64), 10)
	case KindF64:
		return strconv.FormatFloat(v.payload.(float64), 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.payload.(bool))
	default:
		return v.kind.String()
	}
}
