package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/chazu/vellum/pkg/types"
)

// ErrNodeNotFound is returned when a lookup names no node.
var ErrNodeNotFound = errors.New("node not found")

// NodeNetwork is a graph of document nodes. Exports name the network's
// outputs; Imports declare the types of its inputs.
type NodeNetwork struct {
	Nodes   map[NodeID]*DocumentNode
	Exports []NodeInput
	Imports []types.Type
}

// NewNetwork returns an empty network.
func NewNetwork() *NodeNetwork {
	return &NodeNetwork{Nodes: make(map[NodeID]*DocumentNode)}
}

// AddNode inserts n under an ID derived from its name and returns the ID.
// It does not check for duplicates.
func (g *NodeNetwork) AddNode(n *DocumentNode) NodeID {
	id := NewNodeID(n.Name)
	g.Nodes[id] = n
	return id
}

// SetNode inserts n under an explicit ID.
func (g *NodeNetwork) SetNode(id NodeID, n *DocumentNode) {
	g.Nodes[id] = n
}

// Export appends an output of the network.
func (g *NodeNetwork) Export(in NodeInput) {
	g.Exports = append(g.Exports, in)
}

// Get returns the node with the given ID, or nil.
func (g *NodeNetwork) Get(id NodeID) *DocumentNode {
	return g.Nodes[id]
}

// Lookup returns the ID of the node with the given name.
func (g *NodeNetwork) Lookup(name string) (NodeID, error) {
	for _, id := range g.SortedIDs() {
		if g.Nodes[id].Name == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrNodeNotFound, name)
}

// Upstream returns the distinct IDs node id reads from, sorted.
func (g *NodeNetwork) Upstream(id NodeID) []NodeID {
	n := g.Nodes[id]
	if n == nil {
		return nil
	}
	ids := lo.Uniq(n.Upstream())
	slices.Sort(ids)
	return ids
}

// Downstream returns the IDs of nodes reading from id, sorted.
func (g *NodeNetwork) Downstream(id NodeID) []NodeID {
	ids := lo.Filter(g.SortedIDs(), func(other NodeID, _ int) bool {
		return slices.Contains(g.Nodes[other].Upstream(), id)
	})
	return ids
}

// SortedIDs returns every node ID in ascending order.
func (g *NodeNetwork) SortedIDs() []NodeID {
	ids := lo.Keys(g.Nodes)
	slices.Sort(ids)
	return ids
}

// NodeCount returns the total number of nodes.
func (g *NodeNetwork) NodeCount() int {
	return len(g.Nodes)
}
