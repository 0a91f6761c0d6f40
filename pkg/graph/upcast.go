package graph

import (
	"context"

	"github.com/chazu/vellum/pkg/dynany"
	"github.com/chazu/vellum/pkg/memo"
	"github.com/chazu/vellum/pkg/node"
)

// UpcastNode presents a constant value as a zero-input node. The value is
// hashed once when the node is built.
type UpcastNode struct {
	value memo.Memo[TaggedValue]
}

// NewUpcastNode wraps an already hashed value.
func NewUpcastNode(v memo.Memo[TaggedValue]) *UpcastNode {
	return &UpcastNode{value: v}
}

// UpcastValue hashes v and wraps it.
func UpcastValue(v TaggedValue) *UpcastNode {
	return NewUpcastNode(v.Memo())
}

// Eval ignores its input and yields the erased value.
func (n *UpcastNode) Eval(dynany.Dyn) *node.Future {
	return node.NewFuture(func(context.Context) (dynany.Dyn, error) {
		return n.value.Value().ToDyn(), nil
	})
}

// Hash returns the hash computed at construction.
func (n *UpcastNode) Hash() uint64 { return n.value.Hash() }

// Value returns the wrapped value.
func (n *UpcastNode) Value() TaggedValue { return n.value.Value() }

// RefSource is implemented by owned values that can lend a reference to one
// of their parts.
type RefSource[U any] interface {
	AsRef() *U
}

// UpcastAsRefNode presents a reference into an owned value as a zero-input
// node. Nothing is copied: the erased output points into the owned value.
type UpcastAsRefNode[T RefSource[U], U any] struct {
	owned T
}

// NewUpcastAsRefNode takes ownership of v.
func NewUpcastAsRefNode[T RefSource[U], U any](v T) *UpcastAsRefNode[T, U] {
	return &UpcastAsRefNode[T, U]{owned: v}
}

// Eval ignores its input and yields a reference into the owned value.
func (n *UpcastAsRefNode[T, U]) Eval(dynany.Dyn) *node.Future {
	return node.NewFuture(func(context.Context) (dynany.Dyn, error) {
		return dynany.Ref(n.owned.AsRef()), nil
	})
}

var (
	_ node.Node   = (*UpcastNode)(nil)
	_ node.Hashed = (*UpcastNode)(nil)
)
