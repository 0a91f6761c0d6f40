package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/chazu/vellum/pkg/graph"
	"github.com/chazu/vellum/pkg/logging"
	"github.com/chazu/vellum/pkg/memo"
	"github.com/chazu/vellum/pkg/types"
)

var (
	// ErrInvalidNetwork wraps the validation errors that block compilation.
	ErrInvalidNetwork = errors.New("invalid network")
	// ErrUnknownImplementation is returned for a node whose implementation
	// is not in the library.
	ErrUnknownImplementation = errors.New("unknown implementation")
)

// ProtoInput is a resolved argument: the output of an earlier node, a
// static value, or an import of the network.
type ProtoInput struct {
	Kind   graph.InputKind // InputNode, InputValue or InputImport
	Node   graph.NodeID
	Static memo.Memo[graph.TaggedValue]
	Import int
}

// ProtoNode is a compiled node.
type ProtoNode struct {
	ID       graph.NodeID
	Name     string
	Builtin  *Builtin
	Inputs   []ProtoInput
	Identity uint64
}

// ProtoNetwork is a network ready to execute: nodes in dependency order
// with every input resolved.
type ProtoNetwork struct {
	Nodes   []*ProtoNode
	Exports []ProtoInput
	Imports []types.Type
	index   map[graph.NodeID]int
}

// Node returns the compiled node with the given ID.
func (p *ProtoNetwork) Node(id graph.NodeID) (*ProtoNode, bool) {
	i, ok := p.index[id]
	if !ok {
		return nil, false
	}
	return p.Nodes[i], true
}

// Order returns the node names in execution order.
func (p *ProtoNetwork) Order() []string {
	return lo.Map(p.Nodes, func(n *ProtoNode, _ int) string { return n.Name })
}

// Compile validates g and turns it into a ProtoNetwork using the builtins
// of lib. Literal text is parsed for its declared type; unparsable text
// becomes None. Arguments a node omits default from the builtin's
// declared parameter types.
func Compile(g *graph.NodeNetwork, lib *Library) (*ProtoNetwork, error) {
	if errs := graph.Errors(graph.Validate(g)); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidNetwork, errors.Join(lo.Map(errs, func(e graph.ValidationError, _ int) error { return e })...))
	}

	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}

	p := &ProtoNetwork{Imports: slices.Clone(g.Imports), index: make(map[graph.NodeID]int, len(order))}
	for _, id := range order {
		dn := g.Nodes[id]
		b, ok := lib.Lookup(dn.Implementation)
		if !ok {
			return nil, fmt.Errorf("node %q: %w %q", dn.Name, ErrUnknownImplementation, dn.Implementation)
		}
		if len(dn.Inputs) > len(b.Params) {
			return nil, fmt.Errorf("node %q: %s takes %d inputs, got %d", dn.Name, b.Name, len(b.Params), len(dn.Inputs))
		}

		pn := &ProtoNode{ID: id, Name: dn.Name, Builtin: b}
		for i, param := range b.Params {
			if i >= len(dn.Inputs) {
				pn.Inputs = append(pn.Inputs, static(graph.FromTypeOrNone(param)))
				continue
			}
			in, err := resolveInput(dn, i)
			if err != nil {
				return nil, err
			}
			pn.Inputs = append(pn.Inputs, in)
		}
		pn.Identity = identity(b.Name, pn.Inputs)
		p.index[id] = len(p.Nodes)
		p.Nodes = append(p.Nodes, pn)
	}

	for i, ex := range g.Exports {
		if ex.Kind != graph.InputNode {
			return nil, fmt.Errorf("export %d: must reference a node, got %s", i, ex.Kind)
		}
		p.Exports = append(p.Exports, ProtoInput{Kind: graph.InputNode, Node: ex.Node})
	}
	return p, nil
}

func static(v graph.TaggedValue) ProtoInput {
	return ProtoInput{Kind: graph.InputValue, Static: v.Memo()}
}

func resolveInput(dn *graph.DocumentNode, i int) (ProtoInput, error) {
	in := dn.Inputs[i]
	switch in.Kind {
	case graph.InputNode:
		if in.OutputIndex != 0 {
			return ProtoInput{}, fmt.Errorf("node %q input %d: output index %d out of range", dn.Name, i, in.OutputIndex)
		}
		return ProtoInput{Kind: graph.InputNode, Node: in.Node}, nil
	case graph.InputValue:
		return static(in.Value), nil
	case graph.InputImport:
		return ProtoInput{Kind: graph.InputImport, Import: in.ImportIndex}, nil
	case graph.InputLiteral:
		v, ok := graph.FromPrimitiveString(in.Text, in.Type)
		if !ok {
			logging.Logger().Error("literal input left unset", "node", dn.Name, "input", i, "text", in.Text)
			return static(graph.None), nil
		}
		return static(v), nil
	case graph.InputInline:
		return static(graph.String(in.Source)), nil
	default:
		return ProtoInput{}, fmt.Errorf("node %q input %d: unknown input kind %s", dn.Name, i, in.Kind)
	}
}

// identity hashes what is known about a node before it runs: its builtin
// and its static arguments.
func identity(name string, inputs []ProtoInput) uint64 {
	h := memo.NewHasher()
	h.WriteString(name)
	h.WriteLen(len(inputs))
	for _, in := range inputs {
		h.WriteUint8(uint8(in.Kind))
		switch in.Kind {
		case graph.InputValue:
			h.WriteUint64(in.Static.Hash())
		case graph.InputImport:
			h.WriteLen(in.Import)
		}
	}
	return h.Sum64()
}

// topoSort orders nodes with Kahn's algorithm. Ready nodes are taken in
// ascending ID order so the order depends only on the topology.
func topoSort(g *graph.NodeNetwork) ([]graph.NodeID, error) {
	indegree := make(map[graph.NodeID]int, len(g.Nodes))
	for _, id := range g.SortedIDs() {
		indegree[id] = len(g.Upstream(id))
	}

	var ready []graph.NodeID
	for _, id := range g.SortedIDs() {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]graph.NodeID, 0, len(g.Nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, down := range g.Downstream(id) {
			indegree[down]--
			if indegree[down] == 0 {
				idx, _ := slices.BinarySearch(ready, down)
				ready = slices.Insert(ready, idx, down)
			}
		}
	}
	if len(order) != len(g.Nodes) {
		return nil, fmt.Errorf("%w: cycle detected", ErrInvalidNetwork)
	}
	return order, nil
}
