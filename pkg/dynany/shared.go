package dynany

import (
	"reflect"
	"sync/atomic"
)

// Shared is a reference-counted, read-only box. Holders call Retain when
// they take a reference and Release when done. The boxed value must never
// be mutated in place; produce a new Shared instead.
type Shared struct {
	v    any
	refs atomic.Int64
}

// NewShared boxes v with a reference count of one.
func NewShared(v any) *Shared {
	s := &Shared{v: v}
	s.refs.Store(1)
	return s
}

// Retain adds a holder and returns s for chaining.
func (s *Shared) Retain() *Shared {
	s.refs.Add(1)
	return s
}

// Release drops a holder. It reports true when the last holder is gone.
func (s *Shared) Release() bool {
	n := s.refs.Add(-1)
	if n < 0 {
		panic("dynany: Shared released more times than retained")
	}
	return n == 0
}

// Refs returns the current holder count.
func (s *Shared) Refs() int64 { return s.refs.Load() }

// Value returns the boxed value.
func (s *Shared) Value() any { return s.v }

// Type returns the runtime identity of the boxed value.
func (s *Shared) Type() reflect.Type {
	if s.v == nil {
		return unitType
	}
	return reflect.TypeOf(s.v)
}
