package graph

import "github.com/chazu/vellum/pkg/memo"

// HashInto writes the discriminant, then the payload. Two values of
// different kinds never share a prefix.
func (v TaggedValue) HashInto(h *memo.Hasher) {
	h.WriteUint32(uint32(v.kind))
	memo.HashValue(h, v.Payload())
}

// Hash returns the deterministic hash of v.
func (v TaggedValue) Hash() uint64 {
	h := memo.NewHasher()
	v.HashInto(h)
	return h.Sum64()
}

// Memo pairs v with its hash.
func (v TaggedValue) Memo() memo.Memo[TaggedValue] {
	return memo.WithHash(v, v.Hash())
}
