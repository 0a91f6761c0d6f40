package graph

import (
	"fmt"
	"maps"
	"slices"
)

// ValidationSeverity indicates whether a validation finding blocks
// compilation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks compilation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if network-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// Validate runs the structural checks on a network. It never mutates g.
func Validate(g *NodeNetwork) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateInputs(g)...)
	errs = append(errs, validateExports(g)...)
	return errs
}

// Errors filters findings down to those with SeverityError.
func Errors(findings []ValidationError) []ValidationError {
	var out []ValidationError
	for _, f := range findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
func validateDAG(g *NodeNetwork) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		if _, ok := g.Nodes[id]; !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}
		for _, up := range g.Upstream(id) {
			if visit(up) {
				return true
			}
		}
		color[id] = black
		return false
	}

	// Sorted order keeps the reported node stable between runs.
	for _, id := range g.SortedIDs() {
		if color[id] == white && visit(id) {
			break
		}
	}
	return errs
}

// validateReferences checks that every node input and export points to a
// node that exists.
func validateReferences(g *NodeNetwork) []ValidationError {
	var errs []ValidationError
	for _, id := range g.SortedIDs() {
		for i, in := range g.Nodes[id].Inputs {
			if in.Kind != InputNode {
				continue
			}
			if _, ok := g.Nodes[in.Node]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  fmt.Sprintf("input %d references missing node %s", i, in.Node.Short()),
					Severity: SeverityError,
				})
			}
		}
	}
	for i, ex := range g.Exports {
		if ex.Kind != InputNode {
			continue
		}
		if _, ok := g.Nodes[ex.Node]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("export %d references missing node %s", i, ex.Node.Short()),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateNames checks that node names are unique and every node names an
// implementation.
func validateNames(g *NodeNetwork) []ValidationError {
	var errs []ValidationError
	nameToNodes := make(map[string][]NodeID)
	for _, id := range g.SortedIDs() {
		n := g.Nodes[id]
		if n.Implementation == "" {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  "node has no implementation",
				Severity: SeverityError,
			})
		}
		if n.Name != "" {
			nameToNodes[n.Name] = append(nameToNodes[n.Name], id)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(nameToNodes)) {
		if ids := nameToNodes[name]; len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateInputs checks import indices and that literal inputs declare a
// type that has a value representation.
func validateInputs(g *NodeNetwork) []ValidationError {
	var errs []ValidationError
	for _, id := range g.SortedIDs() {
		for i, in := range g.Nodes[id].Inputs {
			switch in.Kind {
			case InputImport:
				if in.ImportIndex < 0 || in.ImportIndex >= len(g.Imports) {
					errs = append(errs, ValidationError{
						NodeID:   id,
						Message:  fmt.Sprintf("input %d reads import %d but the network has %d", i, in.ImportIndex, len(g.Imports)),
						Severity: SeverityError,
					})
				}
			case InputLiteral:
				if in.Type.IsGeneric() {
					errs = append(errs, ValidationError{
						NodeID:   id,
						Message:  fmt.Sprintf("literal input %d has generic type %s", i, in.Type),
						Severity: SeverityError,
					})
				}
			}
		}
	}
	return errs
}

// validateExports requires at least one export and warns about nodes that
// no export depends on (orphans).
func validateExports(g *NodeNetwork) []ValidationError {
	var errs []ValidationError
	if len(g.Exports) == 0 {
		if len(g.Nodes) > 0 {
			errs = append(errs, ValidationError{
				Message:  "network has no exports",
				Severity: SeverityError,
			})
		}
		return errs
	}

	// Orphan detection: BFS from every exported node through input edges.
	reachable := make(map[NodeID]bool)
	var queue []NodeID
	for _, ex := range g.Exports {
		if ex.Kind == InputNode && !reachable[ex.Node] {
			reachable[ex.Node] = true
			queue = append(queue, ex.Node)
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, up := range g.Upstream(current) {
			if !reachable[up] {
				reachable[up] = true
				queue = append(queue, up)
			}
		}
	}

	for _, id := range g.SortedIDs() {
		if reachable[id] {
			continue
		}
		name := g.Nodes[id].Name
		if name == "" {
			name = id.Short()
		}
		errs = append(errs, ValidationError{
			NodeID:   id,
			Message:  fmt.Sprintf("node %q does not contribute to any export (orphan)", name),
			Severity: SeverityWarning,
		})
	}
	return errs
}
