// Package node defines evaluation units. A Node turns an input into a
// Future; the driver polls Futures one at a time, so a node never runs
// concurrently with another node of the same pass.
package node

import (
	"context"
	"sync"

	"github.com/chazu/vellum/pkg/dynany"
)

// Node is an asynchronously evaluable unit.
type Node interface {
	Eval(input dynany.Dyn) *Future
}

// Hashed is implemented by nodes with a precomputed identity hash.
type Hashed interface {
	Hash() uint64
}

// Future is a deferred computation resolved at most once.
type Future struct {
	once  sync.Once
	thunk func(ctx context.Context) (dynany.Dyn, error)
	value dynany.Dyn
	err   error
}

// NewFuture defers fn until the first Poll.
func NewFuture(fn func(ctx context.Context) (dynany.Dyn, error)) *Future {
	return &Future{thunk: fn}
}

// Ready returns an already resolved Future.
func Ready(v dynany.Dyn) *Future {
	f := &Future{value: v}
	f.once.Do(func() {})
	return f
}

// Failed returns a Future resolved to err.
func Failed(err error) *Future {
	f := &Future{err: err}
	f.once.Do(func() {})
	return f
}

// Poll runs the computation to completion on first call and returns the
// stored result on every call.
func (f *Future) Poll(ctx context.Context) (dynany.Dyn, error) {
	f.once.Do(func() {
		f.value, f.err = f.thunk(ctx)
		f.thunk = nil
	})
	return f.value, f.err
}

// Then returns a Future that polls f and feeds its value to next. Errors
// from f skip next.
func (f *Future) Then(next func(ctx context.Context, v dynany.Dyn) (dynany.Dyn, error)) *Future {
	return NewFuture(func(ctx context.Context) (dynany.Dyn, error) {
		v, err := f.Poll(ctx)
		if err != nil {
			return dynany.Dyn{}, err
		}
		return next(ctx, v)
	})
}

// FnNode adapts a function to Node. The function runs when the returned
// Future is polled, not when Eval is called.
type FnNode func(ctx context.Context, input dynany.Dyn) (dynany.Dyn, error)

func (fn FnNode) Eval(input dynany.Dyn) *Future {
	return NewFuture(func(ctx context.Context) (dynany.Dyn, error) {
		return fn(ctx, input)
	})
}

// ComposeNode evaluates First and feeds its output to Second.
type ComposeNode struct {
	First  Node
	Second Node
}

func (c ComposeNode) Eval(input dynany.Dyn) *Future {
	return c.First.Eval(input).Then(func(ctx context.Context, v dynany.Dyn) (dynany.Dyn, error) {
		return c.Second.Eval(v).Poll(ctx)
	})
}

// Evaluate is a convenience that evaluates n and polls the result.
func Evaluate(ctx context.Context, n Node, input dynany.Dyn) (dynany.Dyn, error) {
	return n.Eval(input).Poll(ctx)
}
