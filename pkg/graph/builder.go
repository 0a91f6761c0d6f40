package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/chazu/vellum/pkg/types"
)

// Builder provides a fluent API for assembling networks. The first error
// is kept and returned by Build.
type Builder struct {
	net   *NodeNetwork
	names map[string]NodeID
	err   error
}

// NewBuilder creates a builder for an empty network.
func NewBuilder() *Builder {
	return &Builder{net: NewNetwork(), names: make(map[string]NodeID)}
}

// Node adds a named node and returns its ID. Names must be unique.
func (b *Builder) Node(name, implementation string, inputs ...NodeInput) NodeID {
	id := NewNodeID(name)
	if b.err != nil {
		return id
	}
	if _, exists := b.names[name]; exists {
		b.err = fmt.Errorf("node %q already exists", name)
		return id
	}
	b.names[name] = id
	b.net.SetNode(id, &DocumentNode{
		Name:           name,
		Implementation: implementation,
		Inputs:         slices.Clone(inputs),
	})
	return id
}

// Ref returns an input reading the named node, which must already exist.
func (b *Builder) Ref(name string) NodeInput {
	id, ok := b.names[name]
	if !ok && b.err == nil {
		b.err = fmt.Errorf("%w: %q", ErrNodeNotFound, name)
	}
	return FromNode(id)
}

// Annotate sets a metadata entry on a node.
func (b *Builder) Annotate(id NodeID, key, value string) *Builder {
	if n := b.net.Get(id); n != nil {
		if n.Metadata == nil {
			n.Metadata = make(map[string]string)
		}
		n.Metadata[key] = value
	}
	return b
}

// Import declares an input of the network and returns an input reading it.
func (b *Builder) Import(t types.Type) NodeInput {
	b.net.Imports = append(b.net.Imports, t)
	return FromImport(len(b.net.Imports)-1, t)
}

// Export marks id's output as a network output.
func (b *Builder) Export(id NodeID) *Builder {
	b.net.Export(FromNode(id))
	return b
}

// Build validates the network and returns it. Warnings are returned
// alongside a nil error.
func (b *Builder) Build() (*NodeNetwork, []ValidationError, error) {
	if b.err != nil {
		return nil, nil, b.err
	}
	findings := Validate(b.net)
	if errs := Errors(findings); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, findings, errors.Join(joined...)
	}
	return b.net, findings, nil
}

// Names returns the node names added so far, sorted.
func (b *Builder) Names() []string {
	return slices.Sorted(maps.Keys(b.names))
}
