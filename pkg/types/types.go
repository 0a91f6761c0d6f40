// Package types describes the shape of values flowing through a node graph.
// A Type is either a concrete Go type, an unbound generic placeholder, a
// function producing some output, or a deferred (future) value.
package types

import (
	"fmt"
	"reflect"

	"github.com/chazu/vellum/pkg/memo"
)

// Unit is the type of "no value". It is the payload type of the None tagged
// value and the input of zero-input nodes.
type Unit struct{}

// Kind discriminates the four descriptor shapes.
type Kind int

const (
	KindConcrete Kind = iota
	KindGeneric
	KindFn
	KindFuture
)

func (k Kind) String() string {
	switch k {
	case KindConcrete:
		return "concrete"
	case KindGeneric:
		return "generic"
	case KindFn:
		return "fn"
	case KindFuture:
		return "future"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// TypeDescriptor identifies a concrete type. ID is the runtime identity used
// for recovery from erased containers; Name is for humans.
type TypeDescriptor struct {
	ID   reflect.Type
	Name string
}

// Type is an immutable type descriptor. The zero Type is an anonymous generic.
type Type struct {
	kind     Kind
	concrete TypeDescriptor
	generic  string
	inner    *Type // output of Fn, wrapped type of Future
}

// Concrete returns the descriptor for T.
func Concrete[T any]() Type {
	return ConcreteOf(reflect.TypeFor[T]())
}

// ConcreteOf returns the descriptor for the runtime type t.
func ConcreteOf(t reflect.Type) Type {
	return Type{
		kind:     KindConcrete,
		concrete: TypeDescriptor{ID: t, Name: t.String()},
	}
}

// UnitType returns the descriptor of Unit.
func UnitType() Type {
	return Concrete[Unit]()
}

// Generic returns an unbound placeholder named name (e.g. "T").
func Generic(name string) Type {
	return Type{kind: KindGeneric, generic: name}
}

// Fn returns the descriptor of a node producing output.
func Fn(output Type) Type {
	return Type{kind: KindFn, inner: &output}
}

// Future returns the descriptor of a deferred inner value.
func Future(inner Type) Type {
	return Type{kind: KindFuture, inner: &inner}
}

// Kind reports the descriptor shape.
func (t Type) Kind() Kind { return t.kind }

// Descriptor returns the concrete identity. ok is false unless t is concrete.
func (t Type) Descriptor() (TypeDescriptor, bool) {
	if t.kind != KindConcrete {
		return TypeDescriptor{}, false
	}
	return t.concrete, true
}

// Inner returns the output of a Fn or the wrapped type of a Future.
func (t Type) Inner() (Type, bool) {
	if t.inner == nil {
		return Type{}, false
	}
	return *t.inner, true
}

// Resolve unwraps Fn and Future descriptors until a concrete or generic
// descriptor is reached.
func (t Type) Resolve() Type {
	for t.kind == KindFn || t.kind == KindFuture {
		t = *t.inner
	}
	return t
}

// IsGeneric reports whether t resolves to an unbound placeholder.
func (t Type) IsGeneric() bool {
	return t.Resolve().kind == KindGeneric
}

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindConcrete:
		return t.concrete.ID == o.concrete.ID
	case KindGeneric:
		return t.generic == o.generic
	default:
		return t.inner.Equal(*o.inner)
	}
}

func (t Type) String() string {
	switch t.kind {
	case KindConcrete:
		if t.concrete.ID == nil {
			return "<?>"
		}
		return t.concrete.Name
	case KindGeneric:
		if t.generic == "" {
			return "_"
		}
		return t.generic
	case KindFn:
		return "Fn() -> " + t.inner.String()
	case KindFuture:
		return "Future<" + t.inner.String() + ">"
	default:
		return "<?>"
	}
}

// HashInto writes a structural hash of the descriptor. Concrete types hash
// by name so the hash is stable across process runs.
func (t Type) HashInto(h *memo.Hasher) {
	h.WriteUint8(uint8(t.kind))
	switch t.kind {
	case KindConcrete:
		h.WriteString(t.String())
	case KindGeneric:
		h.WriteString(t.generic)
	default:
		t.inner.HashInto(h)
	}
}
