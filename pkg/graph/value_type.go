package graph

import (
	"fmt"

	"github.com/chazu/vellum/pkg/types"
)

// Type returns the descriptor needed to rebuild v with FromType.
func (v TaggedValue) Type() types.Type {
	return types.ConcreteOf(registry[v.kind].typ)
}

// FromType returns the default value for a descriptor. Fn and Future
// descriptors resolve to their output. Generic descriptors and concrete
// types without a variant are unrepresentable.
func FromType(t types.Type) (TaggedValue, error) {
	r := t.Resolve()
	d, ok := r.Descriptor()
	if !ok {
		return TaggedValue{}, fmt.Errorf("%w: %s", ErrUnrepresentable, t)
	}
	e, ok := byType[d.ID]
	if !ok {
		return TaggedValue{}, fmt.Errorf("%w: %s", ErrUnrepresentable, t)
	}
	return e.wrap(e.zero()), nil
}

// FromTypeOrNone is FromType falling back to None.
func FromTypeOrNone(t types.Type) TaggedValue {
	v, err := FromType(t)
	if err != nil {
		return None
	}
	return v
}

// TypeOfKind returns the concrete descriptor of k's payload.
func TypeOfKind(k Kind) types.Type {
	return types.ConcreteOf(registry[k].typ)
}
