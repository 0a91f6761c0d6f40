package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/vellum/pkg/appio"
	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/graphic"
	"github.com/chazu/vellum/pkg/memo"
	"github.com/chazu/vellum/pkg/types"
)

var f64 = types.Concrete[float64]()

func build(t *testing.T, b *graph.Builder) *graph.NodeNetwork {
	t.Helper()
	net, _, err := b.Build()
	require.NoError(t, err)
	return net
}

func compile(t *testing.T, net *graph.NodeNetwork) *ProtoNetwork {
	t.Helper()
	p, err := Compile(net, DefaultLibrary())
	require.NoError(t, err)
	return p
}

func evaluate(t *testing.T, e *Executor, p *ProtoNetwork, req Request) *Result {
	t.Helper()
	res, err := e.Evaluate(context.Background(), appio.NewEnvironment(), p, req)
	require.NoError(t, err)
	return res
}

// arithmetic builds (1 + 2) * 3.
func arithmetic() *graph.Builder {
	b := graph.NewBuilder()
	b.Node("sum", "math.add", graph.FromLiteral("1", f64), graph.FromLiteral("2", f64))
	prod := b.Node("product", "math.multiply", b.Ref("sum"), graph.FromValue(graph.F64(3)))
	b.Export(prod)
	return b
}

func TestCompileOrdersTopologically(t *testing.T) {
	b := graph.NewBuilder()
	b.Node("c", "math.add", graph.FromValue(graph.F64(1)), graph.FromValue(graph.F64(1)))
	b.Node("a", "math.add", b.Ref("c"), graph.FromValue(graph.F64(1)))
	root := b.Node("b", "math.add", b.Ref("a"), b.Ref("c"))
	b.Export(root)

	p := compile(t, build(t, b))
	assert.Equal(t, []string{"c", "a", "b"}, p.Order())

	n, ok := p.Node(root)
	require.True(t, ok)
	assert.Equal(t, "math.add", n.Builtin.Name)
	assert.Len(t, p.Exports, 1)
}

func TestCompileIsDeterministic(t *testing.T) {
	first := compile(t, build(t, arithmetic()))
	second := compile(t, build(t, arithmetic()))
	require.Equal(t, first.Order(), second.Order())
	for i := range first.Nodes {
		assert.Equal(t, first.Nodes[i].Identity, second.Nodes[i].Identity)
	}
}

func TestCompileErrors(t *testing.T) {
	t.Run("unknown implementation", func(t *testing.T) {
		b := graph.NewBuilder()
		b.Export(b.Node("x", "no.such.node"))
		_, err := Compile(build(t, b), DefaultLibrary())
		assert.ErrorIs(t, err, ErrUnknownImplementation)
	})
	t.Run("invalid network", func(t *testing.T) {
		net := graph.NewNetwork()
		net.AddNode(&graph.DocumentNode{Name: "lonely", Implementation: "identity"})
		_, err := Compile(net, DefaultLibrary())
		assert.ErrorIs(t, err, ErrInvalidNetwork)
	})
	t.Run("too many inputs", func(t *testing.T) {
		b := graph.NewBuilder()
		one := graph.FromValue(graph.F64(1))
		b.Export(b.Node("x", "math.add", one, one, one))
		_, err := Compile(build(t, b), DefaultLibrary())
		assert.ErrorContains(t, err, "takes 2 inputs, got 3")
	})
	t.Run("output index", func(t *testing.T) {
		b := graph.NewBuilder()
		src := b.Node("src", "math.add")
		in := graph.FromNode(src)
		in.OutputIndex = 1
		b.Export(b.Node("x", "identity", in))
		_, err := Compile(build(t, b), DefaultLibrary())
		assert.ErrorContains(t, err, "output index 1")
	})
}

func TestCompileResolvesInputs(t *testing.T) {
	b := graph.NewBuilder()
	b.Export(b.Node("x", "math.expression", graph.FromInline("(+ a b)"), graph.FromLiteral("2.5", f64)))
	p := compile(t, build(t, b))

	n := p.Nodes[0]
	require.Len(t, n.Inputs, 5)
	assert.Equal(t, graph.String("(+ a b)"), n.Inputs[0].Static.Value())
	assert.Equal(t, graph.F64(2.5), n.Inputs[1].Static.Value())
	// omitted inputs default from the declared parameter types
	assert.Equal(t, graph.F64(0), n.Inputs[4].Static.Value())
}

func TestCompileMalformedLiteralIsNone(t *testing.T) {
	b := graph.NewBuilder()
	b.Export(b.Node("x", "math.add", graph.FromLiteral("not a number", f64)))
	p := compile(t, build(t, b))
	assert.True(t, p.Nodes[0].Inputs[0].Static.Value().IsNone())

	res := evaluate(t, NewExecutor(), p, Request{})
	require.Len(t, res.Errors, 1)
	var argErr *ArgumentError
	assert.ErrorAs(t, res.Errors[0], &argErr)
}

func TestEvaluateArithmetic(t *testing.T) {
	p := compile(t, build(t, arithmetic()))
	res := evaluate(t, NewExecutor(), p, Request{})

	assert.Empty(t, res.Errors)
	assert.Equal(t, graph.F64(9), res.Output)
	assert.Equal(t, 2, res.Stats.Nodes)
	assert.Equal(t, 2, res.Stats.Misses)
}

func TestSecondPassIsAllHits(t *testing.T) {
	p := compile(t, build(t, arithmetic()))
	e := NewExecutor()

	first := evaluate(t, e, p, Request{})
	second := evaluate(t, e, p, Request{})

	assert.Equal(t, 0, second.Stats.Misses)
	assert.Equal(t, second.Stats.Nodes, second.Stats.Hits)
	assert.Equal(t, first.Output, second.Output)
	require.Len(t, second.Trace, len(first.Trace))
	for i := range first.Trace {
		assert.Equal(t, first.Trace[i].Key, second.Trace[i].Key)
		assert.True(t, second.Trace[i].Hit)
	}
}

func TestChangedImportRecomputesDependentsOnly(t *testing.T) {
	b := graph.NewBuilder()
	b.Node("scaled", "math.add", b.Import(f64), graph.FromValue(graph.F64(1)))
	b.Node("constant", "math.add", graph.FromValue(graph.F64(10)), graph.FromValue(graph.F64(5)))
	b.Export(b.Node("total", "math.add", b.Ref("scaled"), b.Ref("constant")))
	p := compile(t, build(t, b))
	e := NewExecutor()

	res := evaluate(t, e, p, Request{Imports: []graph.TaggedValue{graph.F64(1)}})
	assert.Equal(t, graph.F64(17), res.Output)

	res = evaluate(t, e, p, Request{Imports: []graph.TaggedValue{graph.F64(2)}})
	assert.Equal(t, graph.F64(18), res.Output)

	hits := map[string]bool{}
	for _, ev := range res.Trace {
		hits[ev.Name] = ev.Hit
	}
	assert.Equal(t, map[string]bool{"scaled": false, "constant": true, "total": false}, hits)
}

func TestMissingImportTakesDefault(t *testing.T) {
	b := graph.NewBuilder()
	b.Export(b.Node("x", "math.add", b.Import(f64), graph.FromValue(graph.F64(4))))
	p := compile(t, build(t, b))

	res := evaluate(t, NewExecutor(), p, Request{})
	assert.Equal(t, graph.F64(4), res.Output)
}

func TestFailingNodeMarksOnlyDependents(t *testing.T) {
	b := graph.NewBuilder()
	b.Node("bad", "math.expression", graph.FromInline("(+ a"))
	dep := b.Node("dependent", "math.add", b.Ref("bad"), graph.FromValue(graph.F64(1)))
	ok := b.Node("independent", "math.add", graph.FromValue(graph.F64(1)), graph.FromValue(graph.F64(1)))
	b.Export(dep).Export(ok)
	p := compile(t, build(t, b))
	e := NewExecutor()

	res := evaluate(t, e, p, Request{})
	require.Len(t, res.Errors, 2)
	byName := map[string]*NodeError{}
	for _, ne := range res.Errors {
		byName[ne.Name] = ne
	}

	var evalErr EvalError
	assert.ErrorAs(t, byName["bad"], &evalErr)
	assert.ErrorIs(t, byName["dependent"], ErrUpstreamFailed)
	assert.NotContains(t, byName, "independent")

	assert.Equal(t, []graph.TaggedValue{graph.None, graph.F64(2)}, res.Outputs)
	assert.Equal(t, graph.None, res.Output)
	assert.Equal(t, 1, res.Stats.Failed)
	assert.Equal(t, 1, res.Stats.Skipped)

	// failures are not memoized
	again := evaluate(t, e, p, Request{})
	assert.Len(t, again.Errors, 2)
	for _, ev := range again.Trace {
		if ev.Name == "bad" {
			assert.False(t, ev.Hit)
		}
	}
}

func TestCallInputIsPartOfTheKey(t *testing.T) {
	b := graph.NewBuilder()
	b.Export(b.Node("fp", "context.footprint"))
	p := compile(t, build(t, b))
	e := NewExecutor()

	first := evaluate(t, e, p, Request{Input: graph.F64(1)})
	second := evaluate(t, e, p, Request{Input: graph.F64(2)})
	assert.Equal(t, 1, first.Stats.Misses)
	assert.Equal(t, 1, second.Stats.Misses)
}

func TestEnvironmentIsPartOfTheKey(t *testing.T) {
	font := graphic.Font{Family: "Test", Style: "Bold"}
	withFont := appio.NewEnvironment().WithFonts(graphic.NewFontCache().With(font, []byte("font bytes")))
	without := appio.NewEnvironment()

	b := graph.NewBuilder()
	b.Node("fonts", "text.fonts")
	b.Export(b.Node("has", "text.has_font", b.Ref("fonts"), graph.FromValue(graph.MustOf(font))))
	p := compile(t, build(t, b))
	e := NewExecutor()

	run := func(env *appio.Environment) *Result {
		res, err := e.Evaluate(context.Background(), env, p, Request{})
		require.NoError(t, err)
		require.Empty(t, res.Errors)
		return res
	}

	first := run(withFont)
	assert.Equal(t, graph.Bool(true), first.Output)

	second := run(without)
	assert.Equal(t, graph.Bool(false), second.Output)
	assert.Equal(t, 0, second.Stats.Hits)

	third := run(withFont)
	assert.Equal(t, graph.Bool(true), third.Output)
	assert.Equal(t, 2, third.Stats.Hits)
}

func TestEnvironmentFreeNodesHitAcrossEnvironments(t *testing.T) {
	p := compile(t, build(t, arithmetic()))
	e := NewExecutor()
	evaluate(t, e, p, Request{})

	fonts := graphic.NewFontCache().With(graphic.Font{Family: "Other"}, []byte("other"))
	res, err := e.Evaluate(context.Background(), appio.NewEnvironment().WithFonts(fonts), p, Request{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stats.Misses)
}

func TestEvaluateIsDeterministicAcrossExecutors(t *testing.T) {
	p := compile(t, build(t, arithmetic()))
	a := evaluate(t, NewExecutor(), p, Request{})
	b := evaluate(t, NewExecutor(), p, Request{})

	assert.Equal(t, a.Output.Hash(), b.Output.Hash())
	require.Len(t, b.Trace, len(a.Trace))
	for i := range a.Trace {
		assert.Equal(t, a.Trace[i], b.Trace[i])
	}
}

func TestEvaluateCancelledBeforeStart(t *testing.T) {
	p := compile(t, build(t, arithmetic()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecutor().Evaluate(ctx, nil, p, Request{})
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = NewExecutor().Evaluate(context.Background(), nil, nil, Request{})
	assert.Error(t, err)
}

func TestNodeErrorMessage(t *testing.T) {
	err := &NodeError{Name: "blur", Implementation: "raster.blur", Err: errors.New("boom")}
	assert.Equal(t, `node "blur" (raster.blur): boom`, err.Error())
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	v := func(f float64) memo.Memo[graph.TaggedValue] { return graph.F64(f).Memo() }

	c.Set(1, v(1))
	c.Set(2, v(2))
	_, ok := c.Get(1) // 1 becomes most recent
	require.True(t, ok)
	c.Set(3, v(3)) // evicts 2

	_, ok = c.Get(2)
	assert.False(t, ok)
	got, ok := c.Get(3)
	require.True(t, ok)
	assert.Equal(t, graph.F64(3), got.Value())

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 2, stats.MaxSize)

	c.Set(3, v(4))
	got, _ = c.Get(3)
	assert.Equal(t, graph.F64(4), got.Value())

	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)
	_, ok = c.Get(1)
	assert.False(t, ok)

	assert.Equal(t, DefaultCacheCapacity, NewCache(0).Stats().MaxSize)
}

func TestLibraryRegistration(t *testing.T) {
	l := DefaultLibrary()
	names := l.Names()
	assert.Contains(t, names, "math.add")
	assert.Contains(t, names, "render.svg")
	assert.IsIncreasing(t, names)

	err := l.Register(&Builtin{Name: "math.add", Build: buildIdentity})
	assert.ErrorContains(t, err, "already registered")
	assert.Error(t, l.Register(&Builtin{Name: "no.build"}))
}
