// Package graph defines the values that flow through a node graph and the
// document network that wires nodes together.
//
// TaggedValue is a closed sum over every payload type the graph can carry.
// A single dispatch table (value_registry.go) maps each variant to its Go
// type, default constructor and capabilities; erasure, recovery, default
// construction, text parsing, hashing and serialization all read from it.
package graph
