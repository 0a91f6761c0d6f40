package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/logging"
	"github.com/chazu/vellum/pkg/types"
)

// FromPrimitiveString parses literal text for the value type t. Fn and
// Future descriptors parse as their output. Malformed text is logged and
// reported as ok == false.
func FromPrimitiveString(text string, t types.Type) (TaggedValue, bool) {
	r := t.Resolve()
	d, ok := r.Descriptor()
	if !ok {
		return TaggedValue{}, false
	}
	e, ok := byType[d.ID]
	if !ok {
		return TaggedValue{}, false
	}
	v, err := parsePrimitive(e.kind, text)
	if err != nil {
		logging.Logger().Error("malformed literal", "type", e.name, "text", text, "err", err)
		return TaggedValue{}, false
	}
	return v, true
}

func parsePrimitive(k Kind, text string) (TaggedValue, error) {
	switch k {
	case KindNone:
		return None, nil
	case KindString:
		return String(text), nil
	case KindF64:
		f, err := strconv.ParseFloat(text, 64)
		return F64(f), err
	case KindU32:
		n, err := strconv.ParseUint(text, 10, 32)
		return U32(uint32(n)), err
	case KindU64:
		n, err := strconv.ParseUint(text, 10, 64)
		return U64(n), err
	case KindBool:
		switch text {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return TaggedValue{}, fmt.Errorf("want true or false")
	case KindDVec2:
		// Fields past the second are ignored.
		fields := strings.SplitN(text, ",", 3)
		if len(fields) < 2 {
			return TaggedValue{}, fmt.Errorf("want x,y")
		}
		fx, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return TaggedValue{}, err
		}
		fy, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return TaggedValue{}, err
		}
		return TaggedValue{kind: KindDVec2, payload: graphic.DVec2{X: fx, Y: fy}}, nil
	case KindColor:
		c, err := parseColor(text)
		return TaggedValue{kind: KindColor, payload: c}, err
	case KindOptionalColor:
		c, err := parseColor(text)
		return TaggedValue{kind: KindOptionalColor, payload: &c}, err
	case KindFill:
		c, err := parseColor(text)
		return TaggedValue{kind: KindFill, payload: graphic.SolidFill(c)}, err
	case KindReferencePoint:
		name, ok := strings.CutPrefix(text, "ReferencePoint::")
		if !ok {
			return TaggedValue{}, fmt.Errorf("want ReferencePoint::Name")
		}
		p, err := graphic.ParseReferencePoint(name)
		return TaggedValue{kind: KindReferencePoint, payload: p}, err
	default:
		return TaggedValue{}, fmt.Errorf("%s has no literal form", k)
	}
}

// parseColor accepts a quoted 6 or 8 digit hex string or Color::NAME.
func parseColor(text string) (graphic.Color, error) {
	if name, ok := strings.CutPrefix(text, "Color::"); ok {
		c, ok := graphic.NamedColors[strings.TrimSpace(name)]
		if !ok {
			return graphic.Color{}, fmt.Errorf("unknown color constant %q", name)
		}
		return c, nil
	}
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return graphic.Color{}, fmt.Errorf("want quoted hex or Color::NAME")
	}
	return graphic.ParseHex(strings.TrimSpace(strings.Trim(text, `"`)))
}

// ToPrimitiveString renders a primitive-representable value as literal
// text. Calling it on any other kind is a programming error and panics.
func (v TaggedValue) ToPrimitiveString() string {
	switch v.kind {
	case KindNone:
		return "()"
	case KindString:
		return `"` + v.payload.(string) + `"`
	case KindU32:
		return strconv.FormatUint(uint64(v.payload.(uint32)), 10) + "_u32"
	case KindU64:
		return strconv.FormatUint(v.payload.(uint64), 10) + "_u64"
	case KindF64:
		return strconv.FormatFloat(v.payload.(float64), 'g', -1, 64) + "_f64"
	case KindBool:
		return strconv.FormatBool(v.payload.(bool))
	case KindBlendMode:
		return "BlendMode::" + v.payload.(graphic.BlendMode).String()
	case KindColor:
		return v.payload.(graphic.Color).String()
	default:
		panic(fmt.Sprintf("graph: %s has no primitive string form", v.kind))
	}
}
