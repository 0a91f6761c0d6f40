package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/chazu/vellum/pkg/graphic"
)

// MarshalJSON writes the externally tagged form: "None" for the unit
// value, {"Kind": payload} otherwise.
func (v TaggedValue) MarshalJSON() ([]byte, error) {
	e := registry[v.kind]
	if !e.serializable() {
		return nil, fmt.Errorf("%s: %w", e.name, ErrTransient)
	}
	if v.kind == KindNone {
		return []byte(`"None"`), nil
	}
	payload, err := json.Marshal(v.payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	name, _ := json.Marshal(e.name)
	buf.Write(name)
	buf.WriteByte(':')
	buf.Write(payload)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the externally tagged form. Legacy variant names are
// accepted and decoded into their current variant.
func (v *TaggedValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		if name != "None" {
			return fmt.Errorf("tagged value %q has no payload", name)
		}
		*v = None
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("tagged value: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("tagged value: want exactly one variant key, got %d", len(obj))
	}
	for name, raw := range obj {
		e, ok := byName[name]
		if !ok {
			return fmt.Errorf("tagged value: unknown variant %q", name)
		}
		if !e.serializable() {
			return fmt.Errorf("%s: %w", e.name, ErrTransient)
		}
		payload, err := decodePayload(e, name, raw)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*v = e.wrap(payload)
	}
	return nil
}

func decodePayload(e *variant, name string, raw json.RawMessage) (any, error) {
	if dec, ok := legacyDecoders[name]; ok {
		return dec(raw)
	}
	if e.kind == KindNone {
		return e.zero(), nil
	}
	ptr := reflect.New(e.typ)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// legacyDecoders read aliases whose stored shape differs from the current
// payload type.
var legacyDecoders = map[string]func(json.RawMessage) (any, error){
	"IVec2": decodeIntVec,
	"UVec2": decodeIntVec,
	"ImageFrame": func(raw json.RawMessage) (any, error) {
		var img graphic.Image
		if err := json.Unmarshal(raw, &img); err != nil {
			return nil, err
		}
		return graphic.NewTable(img), nil
	},
	"GradientPositions": func(raw json.RawMessage) (any, error) {
		var pairs [][2]json.RawMessage
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return nil, err
		}
		stops := make(graphic.GradientStops, len(pairs))
		for i, p := range pairs {
			if err := json.Unmarshal(p[0], &stops[i].Offset); err != nil {
				return nil, err
			}
			var c *graphic.Color
			if err := json.Unmarshal(p[1], &c); err != nil {
				return nil, err
			}
			if c == nil {
				c = &graphic.Black
			}
			stops[i].Color = c.ToGG()
		}
		return stops, nil
	},
}

// decodeIntVec accepts [x, y] as written for integer vectors.
func decodeIntVec(raw json.RawMessage) (any, error) {
	var xy [2]float64
	if err := json.Unmarshal(raw, &xy); err == nil {
		return graphic.DVec2{X: xy[0], Y: xy[1]}, nil
	}
	var p graphic.DVec2
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}
