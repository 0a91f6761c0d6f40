package graph

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NodeID identifies a node in a network. IDs derived from paths are
// content hashes, so the same path always yields the same ID.
type NodeID uint64

// NewNodeID hashes a slash-joined path of segments.
func NewNodeID(path ...string) NodeID {
	return NodeID(xxhash.Sum64String(strings.Join(path, "/")))
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool { return id == 0 }

// Short returns the first eight hex digits.
func (id NodeID) Short() string { return id.String()[:8] }

func (id NodeID) String() string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return hex.EncodeToString(b[:])
}

func (id NodeID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *NodeID) UnmarshalText(b []byte) error {
	if len(b) != 16 {
		return fmt.Errorf("node id %q: want 16 hex digits", b)
	}
	var raw [8]byte
	if _, err := hex.Decode(raw[:], b); err != nil {
		return fmt.Errorf("node id %q: %w", b, err)
	}
	*id = NodeID(binary.BigEndian.Uint64(raw[:]))
	return nil
}

// NodePath is a chain of node IDs from the document root into nested
// networks.
type NodePath []NodeID
