package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/chazu/vellum/pkg/types"
)

// InputKind enumerates where a node input gets its value.
type InputKind int

const (
	InputNode    InputKind = iota // output of another node
	InputValue                    // a stored tagged value
	InputImport                   // an input of the enclosing network
	InputLiteral                  // literal text parsed for a declared type
	InputInline                   // inline expression source
)

func (k InputKind) String() string {
	switch k {
	case InputNode:
		return "node"
	case InputValue:
		return "value"
	case InputImport:
		return "import"
	case InputLiteral:
		return "literal"
	case InputInline:
		return "inline"
	default:
		return "unknown"
	}
}

// NodeInput is one argument of a DocumentNode.
type NodeInput struct {
	Kind InputKind

	// InputNode
	Node        NodeID
	OutputIndex int

	// InputValue
	Value   TaggedValue
	Exposed bool

	// InputImport
	ImportIndex int

	// InputImport and InputLiteral: the declared value type
	Type types.Type

	// InputLiteral
	Text string

	// InputInline
	Source string
}

// FromNode references the output of another node.
func FromNode(id NodeID) NodeInput { return NodeInput{Kind: InputNode, Node: id} }

// FromValue stores a value directly in the input.
func FromValue(v TaggedValue) NodeInput { return NodeInput{Kind: InputValue, Value: v} }

// FromImport reads input index i of the enclosing network.
func FromImport(i int, t types.Type) NodeInput {
	return NodeInput{Kind: InputImport, ImportIndex: i, Type: t}
}

// FromLiteral stores text that is parsed as t when the network compiles.
func FromLiteral(text string, t types.Type) NodeInput {
	return NodeInput{Kind: InputLiteral, Text: text, Type: t}
}

// FromInline stores expression source.
func FromInline(src string) NodeInput { return NodeInput{Kind: InputInline, Source: src} }

func (in NodeInput) String() string {
	switch in.Kind {
	case InputNode:
		return fmt.Sprintf("node(%s:%d)", in.Node.Short(), in.OutputIndex)
	case InputValue:
		return fmt.Sprintf("value(%s)", in.Value.Kind())
	case InputImport:
		return fmt.Sprintf("import(%d)", in.ImportIndex)
	case InputLiteral:
		return fmt.Sprintf("literal(%q as %s)", in.Text, in.Type)
	default:
		return fmt.Sprintf("inline(%q)", in.Source)
	}
}

// DocumentNode is a node as stored in a document: a named instance of an
// implementation with its inputs.
type DocumentNode struct {
	Name           string
	Implementation string
	Inputs         []NodeInput
	Metadata       map[string]string
}

// Clone returns a deep copy of n.
func (n DocumentNode) Clone() DocumentNode {
	out := n
	out.Inputs = slices.Clone(n.Inputs)
	for i := range out.Inputs {
		out.Inputs[i].Value = out.Inputs[i].Value.Clone()
	}
	out.Metadata = maps.Clone(n.Metadata)
	return out
}

// Upstream returns the IDs of nodes this node reads from, in input order.
func (n *DocumentNode) Upstream() []NodeID {
	var ids []NodeID
	for _, in := range n.Inputs {
		if in.Kind == InputNode {
			ids = append(ids, in.Node)
		}
	}
	return ids
}
