package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/vellum/pkg/appio"
	"github.com/chazu/vellum/pkg/dynany"
	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/kernel"
	"github.com/chazu/vellum/pkg/kernel/sdfx"
	"github.com/chazu/vellum/pkg/logging"
	"github.com/chazu/vellum/pkg/memo"
	"github.com/chazu/vellum/pkg/node"
)

// ErrUpstreamFailed marks a node that was not run because one of its
// inputs failed.
var ErrUpstreamFailed = errors.New("upstream node failed")

// NodeError attributes an evaluation failure to a node.
type NodeError struct {
	Node           graph.NodeID
	Name           string
	Implementation string
	Err            error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q (%s): %v", e.Name, e.Implementation, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// Request is the input of one evaluation pass. Input is handed to every
// node as its call input (renders read it as their footprint). Imports
// fill the network's imports by index; missing ones take their type's
// default.
type Request struct {
	Input   graph.TaggedValue
	Imports []graph.TaggedValue
}

// TraceEvent records how one node was resolved.
type TraceEvent struct {
	Node graph.NodeID
	Name string
	Key  uint64
	Hit  bool
}

// Stats summarizes a pass.
type Stats struct {
	Nodes    int
	Hits     int
	Misses   int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// Result is the outcome of a pass. Output is the first export; Outputs
// holds every export in order, None where the exported node failed.
type Result struct {
	Output  graph.TaggedValue
	Outputs []graph.TaggedValue
	Errors  []*NodeError
	Stats   Stats
	Trace   []TraceEvent
}

// Executor runs compiled networks one node at a time, memoizing node
// outputs by the hash of their identity and argument values.
type Executor struct {
	lib    *Library
	cache  *Cache
	kernel kernel.Kernel
	exprs  *Expressions
}

// Option configures an Executor.
type Option func(*Executor)

func WithLibrary(l *Library) Option         { return func(e *Executor) { e.lib = l } }
func WithCache(c *Cache) Option             { return func(e *Executor) { e.cache = c } }
func WithKernel(k kernel.Kernel) Option     { return func(e *Executor) { e.kernel = k } }
func WithExpressions(x *Expressions) Option { return func(e *Executor) { e.exprs = x } }

func WithExpressionTimeout(d time.Duration) Option {
	return func(e *Executor) { e.exprs = NewExpressions(d) }
}

// NewExecutor returns an executor with the default library, an sdfx
// geometry kernel and a cache of DefaultCacheCapacity entries unless
// overridden.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.lib == nil {
		e.lib = DefaultLibrary()
	}
	if e.cache == nil {
		e.cache = NewCache(0)
	}
	if e.kernel == nil {
		e.kernel = sdfx.New()
	}
	if e.exprs == nil {
		e.exprs = NewExpressions(0)
	}
	return e
}

func (e *Executor) Library() *Library { return e.lib }
func (e *Executor) Cache() *Cache     { return e.cache }

// Compile compiles g against the executor's library.
func (e *Executor) Compile(g *graph.NodeNetwork) (*ProtoNetwork, error) {
	return Compile(g, e.lib)
}

// Evaluate runs one pass of p. Node failures are reported in the result,
// not as an error: a failing node records a NodeError, its dependents
// record ErrUpstreamFailed without running, and independent nodes still
// run. The returned error is only set when the pass could not start.
// Cancellation of ctx is observed before the pass; a started pass runs to
// completion.
func (e *Executor) Evaluate(ctx context.Context, env *appio.Environment, p *ProtoNetwork, req Request) (*Result, error) {
	if p == nil {
		return nil, errors.New("evaluate: nil network")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	log := logging.Logger()

	bc := BuildContext{Env: env, Kernel: e.kernel, Exprs: e.exprs}
	input := req.Input.Memo()
	envHash := hashEnvironment(env)
	inputDyn := req.Input.ToDyn()

	outputs := make(map[graph.NodeID]memo.Memo[graph.TaggedValue], len(p.Nodes))
	failed := make(map[graph.NodeID]bool)
	res := &Result{Stats: Stats{Nodes: len(p.Nodes)}}

	fail := func(pn *ProtoNode, err error) {
		failed[pn.ID] = true
		res.Errors = append(res.Errors, &NodeError{Node: pn.ID, Name: pn.Name, Implementation: pn.Builtin.Name, Err: err})
	}

	for _, pn := range p.Nodes {
		args, ok := e.arguments(pn, p, req, outputs, failed)
		if !ok {
			fail(pn, ErrUpstreamFailed)
			res.Stats.Skipped++
			continue
		}

		parts := make([]uint64, 0, len(args)+3)
		parts = append(parts, pn.Identity)
		for _, a := range args {
			parts = append(parts, a.Hash())
		}
		parts = append(parts, input.Hash())
		if pn.Builtin.UsesEnv {
			parts = append(parts, envHash)
		}
		key := memo.Combine(parts...)

		if v, hit := e.cache.Get(key); hit {
			log.Debug("cache hit", "node", pn.Name, "key", key)
			outputs[pn.ID] = v
			res.Stats.Hits++
			res.Trace = append(res.Trace, TraceEvent{Node: pn.ID, Name: pn.Name, Key: key, Hit: true})
			continue
		}
		log.Debug("cache miss", "node", pn.Name, "key", key)
		res.Stats.Misses++
		res.Trace = append(res.Trace, TraceEvent{Node: pn.ID, Name: pn.Name, Key: key})

		v, err := e.run(ctx, bc, pn, args, inputDyn)
		if err != nil {
			log.Error("node failed", "node", pn.Name, "implementation", pn.Builtin.Name, "error", err)
			fail(pn, err)
			res.Stats.Failed++
			continue
		}
		m := v.Memo()
		e.cache.Set(key, m)
		outputs[pn.ID] = m
	}

	for _, ex := range p.Exports {
		v, ok := outputs[ex.Node]
		if !ok {
			res.Outputs = append(res.Outputs, graph.None)
			continue
		}
		res.Outputs = append(res.Outputs, v.Value())
	}
	if len(res.Outputs) > 0 {
		res.Output = res.Outputs[0]
	}
	res.Stats.Duration = time.Since(start)
	return res, nil
}

func hashEnvironment(env *appio.Environment) uint64 {
	h := memo.NewHasher()
	h.WriteBool(env != nil)
	if env != nil {
		env.HashInto(h)
	}
	return h.Sum64()
}

// arguments resolves the argument values of pn. ok is false when an
// upstream node failed.
func (e *Executor) arguments(pn *ProtoNode, p *ProtoNetwork, req Request, outputs map[graph.NodeID]memo.Memo[graph.TaggedValue], failed map[graph.NodeID]bool) ([]memo.Memo[graph.TaggedValue], bool) {
	args := make([]memo.Memo[graph.TaggedValue], len(pn.Inputs))
	for i, in := range pn.Inputs {
		switch in.Kind {
		case graph.InputNode:
			if failed[in.Node] {
				return nil, false
			}
			args[i] = outputs[in.Node]
		case graph.InputImport:
			if in.Import < len(req.Imports) {
				args[i] = req.Imports[in.Import].Memo()
			} else {
				args[i] = graph.FromTypeOrNone(p.Imports[in.Import]).Memo()
			}
		default:
			args[i] = in.Static
		}
	}
	return args, true
}

// run instantiates the builtin of pn over upcast argument nodes and polls
// it to completion.
func (e *Executor) run(ctx context.Context, bc BuildContext, pn *ProtoNode, args []memo.Memo[graph.TaggedValue], input dynany.Dyn) (v graph.TaggedValue, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	nodes := make([]node.Node, len(args))
	for i, a := range args {
		nodes[i] = graph.NewUpcastNode(a)
	}
	n := pn.Builtin.Build(bc, nodes)
	d, err := n.Eval(input).Poll(ctx)
	if err != nil {
		return graph.None, err
	}
	return graph.FromDyn(d)
}
