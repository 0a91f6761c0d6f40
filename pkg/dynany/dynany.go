// Package dynany provides type-erased containers that keep the runtime type
// identity of the boxed value so it can be recovered later.
//
// Dyn is an owned box (or a borrowed reference into an owned value). Shared
// is a reference-counted box that many holders may read concurrently.
package dynany

import (
	"reflect"

	"github.com/chazu/vellum/pkg/types"
)

var unitType = reflect.TypeFor[types.Unit]()

// Dyn is an owned, type-erased value. The zero Dyn holds the unit value.
type Dyn struct {
	v   any
	ref bool
}

// New boxes v.
func New[T any](v T) Dyn {
	return Dyn{v: v}
}

// Of boxes an already erased value. A nil interface becomes unit.
func Of(v any) Dyn {
	return Dyn{v: v}
}

// Ref boxes a reference into an owned value without copying it. The
// runtime identity of the box is T, not *T.
func Ref[T any](p *T) Dyn {
	return Dyn{v: p, ref: true}
}

// Unit returns the boxed unit value.
func Unit() Dyn {
	return Dyn{v: types.Unit{}}
}

// IsRef reports whether d borrows rather than owns its value.
func (d Dyn) IsRef() bool { return d.ref }

// Type returns the runtime identity of the boxed value. For references it
// is the type of the value referred to.
func (d Dyn) Type() reflect.Type {
	if d.v == nil {
		return unitType
	}
	t := reflect.TypeOf(d.v)
	if d.ref {
		return t.Elem()
	}
	return t
}

// TypeName returns a human-readable name of Type.
func (d Dyn) TypeName() string {
	return d.Type().String()
}

// Value returns the boxed value. For references the returned value is the
// pointer handed to Ref.
func (d Dyn) Value() any {
	if d.v == nil {
		return types.Unit{}
	}
	return d.v
}

// Elem returns the value the box holds or refers to.
func (d Dyn) Elem() any {
	if d.v == nil {
		return types.Unit{}
	}
	if d.ref {
		return reflect.ValueOf(d.v).Elem().Interface()
	}
	return d.v
}

// Downcast recovers a T from d. References are dereferenced.
func Downcast[T any](d Dyn) (T, bool) {
	if d.ref {
		if p, ok := d.v.(*T); ok && p != nil {
			return *p, true
		}
		var zero T
		return zero, false
	}
	if d.v == nil {
		v, ok := any(types.Unit{}).(T)
		return v, ok
	}
	v, ok := d.v.(T)
	return v, ok
}

// DowncastRef returns a pointer to the T referred to by d. It only
// succeeds for boxes created with Ref.
func DowncastRef[T any](d Dyn) (*T, bool) {
	if !d.ref {
		return nil, false
	}
	p, ok := d.v.(*T)
	return p, ok && p != nil
}
