package graphic

import "github.com/gogpu/gg"

// AlphaBlending controls how an instance composites onto what is below it.
type AlphaBlending struct {
	BlendMode BlendMode
	Opacity   float64
	Fill      float64
	Clip      bool
}

// DefaultAlphaBlending is fully opaque normal blending.
func DefaultAlphaBlending() AlphaBlending {
	return AlphaBlending{BlendMode: BlendNormal, Opacity: 1, Fill: 1}
}

// Instance is one placement of a value in a Table.
type Instance[T any] struct {
	Value         T
	Transform     DAffine2
	AlphaBlending AlphaBlending
	SourceNode    uint64
}

// Table is an ordered list of placed instances of T.
type Table[T any] struct {
	Instances []Instance[T]
}

// NewTable returns a table holding v once at the identity transform.
func NewTable[T any](v T) Table[T] {
	return Table[T]{Instances: []Instance[T]{{
		Value:         v,
		Transform:     gg.Identity(),
		AlphaBlending: DefaultAlphaBlending(),
	}}}
}

func (t Table[T]) Len() int { return len(t.Instances) }

// Push appends an instance.
func (t *Table[T]) Push(inst Instance[T]) {
	t.Instances = append(t.Instances, inst)
}

// Values returns the instance values in order.
func (t Table[T]) Values() []T {
	out := make([]T, len(t.Instances))
	for i, inst := range t.Instances {
		out[i] = inst.Value
	}
	return out
}

// Transformed returns a copy of t with m applied on top of every instance
// transform.
func (t Table[T]) Transformed(m DAffine2) Table[T] {
	out := Table[T]{Instances: make([]Instance[T], len(t.Instances))}
	for i, inst := range t.Instances {
		inst.Transform = m.Multiply(inst.Transform)
		out.Instances[i] = inst
	}
	return out
}

// Concat returns the instances of t followed by those of o.
func (t Table[T]) Concat(o Table[T]) Table[T] {
	out := Table[T]{Instances: make([]Instance[T], 0, len(t.Instances)+len(o.Instances))}
	out.Instances = append(out.Instances, t.Instances...)
	out.Instances = append(out.Instances, o.Instances...)
	return out
}
