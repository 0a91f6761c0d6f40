package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/vellum/pkg/appio"
	"github.com/chazu/vellum/pkg/dynany"
	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/node"
)

// gate is a builtin that blocks its first evaluation until released.
type gate struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) builtin() *Builtin {
	return &Builtin{
		Name:   "test.gate",
		Output: f64,
		Build: func(BuildContext, []node.Node) node.Node {
			return node.FnNode(func(ctx context.Context, _ dynany.Dyn) (dynany.Dyn, error) {
				g.once.Do(func() { close(g.started) })
				<-g.release
				return dynany.Of(1.0), nil
			})
		},
	}
}

func gatedRuntime(t *testing.T) (*Runtime, *ProtoNetwork, *gate) {
	t.Helper()
	g := newGate()
	lib := NewLibrary()
	require.NoError(t, lib.Register(g.builtin()))

	b := graph.NewBuilder()
	b.Export(b.Node("gate", "test.gate"))
	net, _, err := b.Build()
	require.NoError(t, err)
	p, err := Compile(net, lib)
	require.NoError(t, err)

	r := NewRuntime(NewExecutor(WithLibrary(lib)), nil)
	t.Cleanup(r.Close)
	return r, p, g
}

func receive(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func TestRuntimeDeliversResult(t *testing.T) {
	r := NewRuntime(NewExecutor(), nil)
	defer r.Close()

	p := compile(t, build(t, arithmetic()))
	u := receive(t, r.Evaluate(context.Background(), p, Request{}))
	require.NoError(t, u.Err)
	assert.Equal(t, uint64(1), u.Generation)
	assert.Equal(t, graph.F64(9), u.Result.Output)
}

func TestRuntimeSupersedesStaleRequests(t *testing.T) {
	r, p, g := gatedRuntime(t)
	ctx := context.Background()

	first := r.Evaluate(ctx, p, Request{})
	<-g.started
	second := r.Evaluate(ctx, p, Request{})
	third := r.Evaluate(ctx, p, Request{})

	// the second request never ran
	u := receive(t, second)
	assert.ErrorIs(t, u.Err, ErrSuperseded)
	assert.Equal(t, uint64(2), u.Generation)

	close(g.release)

	u = receive(t, first)
	assert.ErrorIs(t, u.Err, ErrSuperseded)

	u = receive(t, third)
	require.NoError(t, u.Err)
	assert.Equal(t, uint64(3), u.Generation)
	assert.Equal(t, graph.F64(1), u.Result.Output)
}

func TestReplaceEnvironmentWaitsForPass(t *testing.T) {
	r, p, g := gatedRuntime(t)
	ctx := context.Background()

	pass := r.Evaluate(ctx, p, Request{})
	<-g.started

	env := appio.NewEnvironment()
	replaced := make(chan error, 1)
	go func() { replaced <- r.ReplaceEnvironment(ctx, env) }()

	select {
	case <-replaced:
		t.Fatal("environment replaced while a pass was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	assert.NotSame(t, env, r.Environment())

	close(g.release)
	require.NoError(t, receive(t, pass).Err)
	require.NoError(t, <-replaced)

	assert.Same(t, env, r.Environment())
	assert.Equal(t, 0, r.Executor().Cache().Stats().Size)
}

func TestReplaceEnvironmentRespectsContext(t *testing.T) {
	r, p, g := gatedRuntime(t)
	defer close(g.release)

	r.Evaluate(context.Background(), p, Request{})
	<-g.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.ReplaceEnvironment(ctx, appio.NewEnvironment()), context.DeadlineExceeded)
	assert.Error(t, r.ReplaceEnvironment(context.Background(), nil))
}

func TestClosedRuntimeRejectsRequests(t *testing.T) {
	r := NewRuntime(NewExecutor(), nil)
	r.Close()

	u := receive(t, r.Evaluate(context.Background(), compile(t, build(t, arithmetic())), Request{}))
	assert.ErrorIs(t, u.Err, ErrRuntimeClosed)
	r.Close()
}
