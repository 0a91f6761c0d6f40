package graph

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/chazu/vellum/pkg/dynany"
)

// ErrNoMatchingVariant is wrapped by ErasureError.
var ErrNoMatchingVariant = errors.New("no matching variant")

// ErasureError reports an erased value whose runtime type is not
// registered.
type ErasureError struct {
	TypeName string
}

func (e *ErasureError) Error() string {
	return fmt.Sprintf("no matching variant for runtime type `%s`", e.TypeName)
}

func (e *ErasureError) Unwrap() error { return ErrNoMatchingVariant }

// ToDyn erases v into an owned container.
func (v TaggedValue) ToDyn() dynany.Dyn {
	return dynany.Of(v.Payload())
}

// ToShared erases v into a reference-counted container.
func (v TaggedValue) ToShared() *dynany.Shared {
	return dynany.NewShared(v.Payload())
}

func lookup(t reflect.Type) (*variant, error) {
	for _, e := range matchOrder {
		if e.typ == t {
			return e, nil
		}
	}
	return nil, &ErasureError{TypeName: t.String()}
}

// FromDyn recovers a TaggedValue from an owned container. Borrowed
// references are cloned since the container does not own them.
func FromDyn(d dynany.Dyn) (TaggedValue, error) {
	e, err := lookup(d.Type())
	if err != nil {
		return TaggedValue{}, err
	}
	if d.IsRef() {
		return e.wrap(clonePayload(e, d.Elem())), nil
	}
	return e.wrap(d.Value()), nil
}

// FromSharedRef recovers a TaggedValue from a shared container without
// taking ownership: the payload is cloned, except for shared caches which
// are immutable and shared by pointer.
func FromSharedRef(s *dynany.Shared) (TaggedValue, error) {
	e, err := lookup(s.Type())
	if err != nil {
		return TaggedValue{}, err
	}
	return e.wrap(clonePayload(e, s.Value())), nil
}

// Clone returns a deep copy of v. Shared caches are shared.
func (v TaggedValue) Clone() TaggedValue {
	e := registry[v.kind]
	return e.wrap(clonePayload(e, v.Payload()))
}

var taggedValueType = reflect.TypeFor[TaggedValue]()

func clonePayload(e *variant, v any) any {
	if e.shared() || v == nil {
		return v
	}
	return cloneReflect(reflect.ValueOf(v)).Interface()
}

func cloneReflect(v reflect.Value) reflect.Value {
	t := v.Type()
	if t == taggedValueType {
		tv := v.Interface().(TaggedValue)
		return reflect.ValueOf(tv.Clone())
	}
	if e, ok := byType[t]; ok && e.shared() {
		return v
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		n := reflect.New(t.Elem())
		n.Elem().Set(cloneReflect(v.Elem()))
		return n
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		n := reflect.MakeSlice(t, v.Len(), v.Len())
		if isPlain(t.Elem()) {
			reflect.Copy(n, v)
			return n
		}
		for i := range v.Len() {
			n.Index(i).Set(cloneReflect(v.Index(i)))
		}
		return n
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		n := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			n.SetMapIndex(cloneReflect(iter.Key()), cloneReflect(iter.Value()))
		}
		return n
	case reflect.Array:
		n := reflect.New(t).Elem()
		n.Set(v)
		if !isPlain(t.Elem()) {
			for i := range v.Len() {
				n.Index(i).Set(cloneReflect(v.Index(i)))
			}
		}
		return n
	case reflect.Struct:
		n := reflect.New(t).Elem()
		n.Set(v)
		for i := range v.NumField() {
			if f := n.Field(i); f.CanSet() && !isPlain(f.Type()) {
				f.Set(cloneReflect(v.Field(i)))
			}
		}
		return n
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		n := reflect.New(t).Elem()
		n.Set(cloneReflect(v.Elem()))
		return n
	default:
		return v
	}
}

// isPlain reports whether values of t can be copied by assignment.
func isPlain(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return false
	case reflect.Array:
		return isPlain(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !isPlain(t.Field(i).Type) {
				return false
			}
		}
	}
	return true
}
