// Package memo provides deterministic structural hashing and memoized
// values. Hashes are stable across passes and process runs: integers are
// written little-endian at fixed width, floats by bit pattern, strings and
// sequences length-prefixed.
package memo

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Hasher accumulates a 64-bit deterministic hash.
type Hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

// NewHasher returns an empty hasher.
func NewHasher() *Hasher {
	return &Hasher{d: xxhash.New()}
}

// Hashable lets a type override structural hashing.
type Hashable interface {
	HashInto(h *Hasher)
}

func (h *Hasher) WriteUint8(v uint8) {
	h.buf[0] = v
	_, _ = h.d.Write(h.buf[:1])
}

func (h *Hasher) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(h.buf[:4], v)
	_, _ = h.d.Write(h.buf[:4])
}

func (h *Hasher) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	_, _ = h.d.Write(h.buf[:])
}

func (h *Hasher) WriteInt64(v int64) { h.WriteUint64(uint64(v)) }

func (h *Hasher) WriteBool(v bool) {
	if v {
		h.WriteUint8(1)
	} else {
		h.WriteUint8(0)
	}
}

// WriteFloat64 hashes the raw bit pattern, so NaN payloads are distinct and
// -0 differs from +0.
func (h *Hasher) WriteFloat64(v float64) { h.WriteUint64(math.Float64bits(v)) }

func (h *Hasher) WriteFloat32(v float32) { h.WriteUint32(math.Float32bits(v)) }

// WriteLen writes a sequence length prefix.
func (h *Hasher) WriteLen(n int) { h.WriteUint64(uint64(n)) }

func (h *Hasher) WriteString(s string) {
	h.WriteLen(len(s))
	_, _ = h.d.WriteString(s)
}

func (h *Hasher) WriteBytes(b []byte) {
	h.WriteLen(len(b))
	_, _ = h.d.Write(b)
}

// Sum64 returns the hash of everything written so far.
func (h *Hasher) Sum64() uint64 { return h.d.Sum64() }

// Hash returns the structural hash of v.
func Hash(v any) uint64 {
	h := NewHasher()
	HashValue(h, v)
	return h.Sum64()
}

// Combine hashes a sequence of already computed hashes.
func Combine(parts ...uint64) uint64 {
	h := NewHasher()
	h.WriteLen(len(parts))
	for _, p := range parts {
		h.WriteUint64(p)
	}
	return h.Sum64()
}
