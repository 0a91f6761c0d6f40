package graph

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/vellum/pkg/types"
)

// typeWire is the persisted form of a types.Type. Concrete types are
// stored by variant name, so only types with a variant can be persisted.
type typeWire struct {
	Concrete string    `json:"concrete,omitempty"`
	Generic  *string   `json:"generic,omitempty"`
	Fn       *typeWire `json:"fn,omitempty"`
	Future   *typeWire `json:"future,omitempty"`
}

func encodeType(t types.Type) (*typeWire, error) {
	switch t.Kind() {
	case types.KindConcrete:
		d, _ := t.Descriptor()
		e, ok := byType[d.ID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnrepresentable, t)
		}
		return &typeWire{Concrete: e.name}, nil
	case types.KindGeneric:
		name := t.String()
		return &typeWire{Generic: &name}, nil
	default:
		inner, _ := t.Inner()
		w, err := encodeType(inner)
		if err != nil {
			return nil, err
		}
		if t.Kind() == types.KindFn {
			return &typeWire{Fn: w}, nil
		}
		return &typeWire{Future: w}, nil
	}
}

func decodeType(w *typeWire) (types.Type, error) {
	switch {
	case w == nil:
		return types.Type{}, fmt.Errorf("missing type")
	case w.Concrete != "":
		e, ok := byName[w.Concrete]
		if !ok {
			return types.Type{}, fmt.Errorf("unknown type %q", w.Concrete)
		}
		return types.ConcreteOf(e.typ), nil
	case w.Generic != nil:
		return types.Generic(*w.Generic), nil
	case w.Fn != nil:
		out, err := decodeType(w.Fn)
		return types.Fn(out), err
	case w.Future != nil:
		inner, err := decodeType(w.Future)
		return types.Future(inner), err
	}
	return types.Type{}, fmt.Errorf("empty type")
}

type nodeInputWire struct {
	Kind        string       `json:"kind"`
	Node        *NodeID      `json:"node,omitempty"`
	OutputIndex int          `json:"output_index,omitempty"`
	Value       *TaggedValue `json:"value,omitempty"`
	Exposed     bool         `json:"exposed,omitempty"`
	Import      *int         `json:"import,omitempty"`
	Type        *typeWire    `json:"type,omitempty"`
	Text        string       `json:"text,omitempty"`
	Source      string       `json:"source,omitempty"`
}

var inputKindNames = map[string]InputKind{
	"node":    InputNode,
	"value":   InputValue,
	"import":  InputImport,
	"literal": InputLiteral,
	"inline":  InputInline,
}

func (in NodeInput) MarshalJSON() ([]byte, error) {
	w := nodeInputWire{Kind: in.Kind.String()}
	switch in.Kind {
	case InputNode:
		w.Node, w.OutputIndex = &in.Node, in.OutputIndex
	case InputValue:
		w.Value, w.Exposed = &in.Value, in.Exposed
	case InputImport, InputLiteral:
		t, err := encodeType(in.Type)
		if err != nil {
			return nil, err
		}
		w.Type, w.Text = t, in.Text
		if in.Kind == InputImport {
			w.Import = &in.ImportIndex
		}
	case InputInline:
		w.Source = in.Source
	}
	return json.Marshal(w)
}

func (in *NodeInput) UnmarshalJSON(b []byte) error {
	var w nodeInputWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	kind, ok := inputKindNames[w.Kind]
	if !ok {
		return fmt.Errorf("unknown input kind %q", w.Kind)
	}
	*in = NodeInput{Kind: kind, OutputIndex: w.OutputIndex, Exposed: w.Exposed, Text: w.Text, Source: w.Source}
	switch kind {
	case InputNode:
		if w.Node == nil {
			return fmt.Errorf("node input without node id")
		}
		in.Node = *w.Node
	case InputValue:
		if w.Value != nil {
			in.Value = *w.Value
		}
	case InputImport, InputLiteral:
		t, err := decodeType(w.Type)
		if err != nil {
			return fmt.Errorf("%s input: %w", w.Kind, err)
		}
		in.Type = t
		if w.Import != nil {
			in.ImportIndex = *w.Import
		}
	}
	return nil
}

type documentNodeWire struct {
	Name           string            `json:"name,omitempty"`
	Implementation string            `json:"implementation"`
	Inputs         []NodeInput       `json:"inputs"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func (n DocumentNode) MarshalJSON() ([]byte, error) {
	inputs := n.Inputs
	if inputs == nil {
		inputs = []NodeInput{}
	}
	return json.Marshal(documentNodeWire{n.Name, n.Implementation, inputs, n.Metadata})
}

func (n *DocumentNode) UnmarshalJSON(b []byte) error {
	var w documentNodeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*n = DocumentNode{Name: w.Name, Implementation: w.Implementation, Metadata: w.Metadata}
	if len(w.Inputs) > 0 {
		n.Inputs = w.Inputs
	}
	return nil
}

type networkWire struct {
	Nodes   map[NodeID]*DocumentNode `json:"nodes"`
	Exports []NodeInput              `json:"exports"`
	Imports []*typeWire              `json:"imports"`
}

func (g *NodeNetwork) MarshalJSON() ([]byte, error) {
	w := networkWire{Nodes: g.Nodes, Exports: g.Exports, Imports: []*typeWire{}}
	if w.Nodes == nil {
		w.Nodes = map[NodeID]*DocumentNode{}
	}
	if w.Exports == nil {
		w.Exports = []NodeInput{}
	}
	for _, t := range g.Imports {
		tw, err := encodeType(t)
		if err != nil {
			return nil, err
		}
		w.Imports = append(w.Imports, tw)
	}
	return json.Marshal(w)
}

func (g *NodeNetwork) UnmarshalJSON(b []byte) error {
	var w networkWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*g = NodeNetwork{Nodes: w.Nodes, Exports: w.Exports}
	if g.Nodes == nil {
		g.Nodes = make(map[NodeID]*DocumentNode)
	}
	for i, tw := range w.Imports {
		t, err := decodeType(tw)
		if err != nil {
			return fmt.Errorf("import %d: %w", i, err)
		}
		g.Imports = append(g.Imports, t)
	}
	return nil
}

