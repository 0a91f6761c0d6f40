package engine

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/chazu/vellum/pkg/appio"
	"github.com/chazu/vellum/pkg/dynany"
	"github.com/chazu/vellum/pkg/kernel"
	"github.com/chazu/vellum/pkg/node"
	"github.com/chazu/vellum/pkg/types"
)

// BuildContext is what a builtin can reach when it is instantiated.
type BuildContext struct {
	Env    *appio.Environment
	Kernel kernel.Kernel
	Exprs  *Expressions
}

// Builtin is a node implementation. Params declare the argument types;
// arguments a document omits are defaulted from them. Build receives one
// zero-input node per parameter and returns the node to evaluate with the
// call input of the pass. Builtins that read BuildContext.Env set UsesEnv
// so their results are cached per environment.
type Builtin struct {
	Name    string
	Params  []types.Type
	Output  types.Type
	Build   func(bc BuildContext, args []node.Node) node.Node
	UsesEnv bool
}

// Library maps implementation names to builtins.
type Library struct {
	mu       sync.RWMutex
	builtins map[string]*Builtin
}

func NewLibrary() *Library {
	return &Library{builtins: make(map[string]*Builtin)}
}

// Register adds b. Names must be unique.
func (l *Library) Register(b *Builtin) error {
	if b.Name == "" || b.Build == nil {
		return fmt.Errorf("builtin %q: name and build function are required", b.Name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.builtins[b.Name]; ok {
		return fmt.Errorf("builtin %q already registered", b.Name)
	}
	l.builtins[b.Name] = b
	return nil
}

func (l *Library) Lookup(name string) (*Builtin, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.builtins[name]
	return b, ok
}

// Names returns the registered implementation names, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := lo.Keys(l.builtins)
	slices.Sort(names)
	return names
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

// ArgumentError reports an argument whose runtime type is not the one the
// builtin expects.
type ArgumentError struct {
	Index int
	Want  string
	Got   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %d: want %s, got %s", e.Index, e.Want, e.Got)
}

// poll evaluates argument i. Argument nodes take no input.
func poll(ctx context.Context, args []node.Node, i int) (dynany.Dyn, error) {
	if i >= len(args) {
		return dynany.Dyn{}, fmt.Errorf("argument %d: missing", i)
	}
	return node.Evaluate(ctx, args[i], dynany.Unit())
}

// arg evaluates argument i and recovers it as a T.
func arg[T any](ctx context.Context, args []node.Node, i int) (T, error) {
	var zero T
	d, err := poll(ctx, args, i)
	if err != nil {
		return zero, err
	}
	v, ok := dynany.Downcast[T](d)
	if !ok {
		return zero, &ArgumentError{Index: i, Want: reflect.TypeFor[T]().String(), Got: d.TypeName()}
	}
	return v, nil
}

// number evaluates argument i as a float64, widening integer payloads.
func number(ctx context.Context, args []node.Node, i int) (float64, error) {
	d, err := poll(ctx, args, i)
	if err != nil {
		return 0, err
	}
	switch v := d.Elem().(type) {
	case float64:
		return v, nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case *float64:
		if v != nil {
			return *v, nil
		}
	}
	return 0, &ArgumentError{Index: i, Want: "number", Got: d.TypeName()}
}

// compute adapts fn into a node whose output is boxed as-is.
func compute(fn func(ctx context.Context, input dynany.Dyn) (any, error)) node.Node {
	return node.FnNode(func(ctx context.Context, input dynany.Dyn) (dynany.Dyn, error) {
		v, err := fn(ctx, input)
		if err != nil {
			return dynany.Dyn{}, err
		}
		return dynany.Of(v), nil
	})
}
