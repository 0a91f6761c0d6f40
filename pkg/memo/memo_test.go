package memo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pair struct {
	A float64
	B *float64
}

type fingerprinted struct {
	ID    uint64
	Cache []byte
}

func (f fingerprinted) HashInto(h *Hasher) { h.WriteUint64(f.ID) }

func TestFloatBitPatterns(t *testing.T) {
	assert.Equal(t, Hash(1.0), Hash(1.0))
	assert.NotEqual(t, Hash(1.0), Hash(math.Nextafter(1.0, 2.0)))
	assert.NotEqual(t, Hash(0.0), Hash(math.Copysign(0, -1)))

	nan := math.NaN()
	assert.Equal(t, Hash(nan), Hash(nan), "same NaN payload must hash identically")
	other := math.Float64frombits(math.Float64bits(nan) | 1)
	assert.NotEqual(t, Hash(nan), Hash(other), "distinct NaN payloads hash distinctly")
}

func TestOptionEncoding(t *testing.T) {
	zero := 0.0
	assert.NotEqual(t, Hash(pair{A: 1}), Hash(pair{A: 1, B: &zero}))

	h := NewHasher()
	h.WriteFloat64(1)
	h.WriteUint8(0)
	assert.Equal(t, h.Sum64(), Hash(pair{A: 1}))
}

func TestSequenceLengthPrefix(t *testing.T) {
	a := [][]float64{{1, 2}, {3}}
	b := [][]float64{{1}, {2, 3}}
	assert.NotEqual(t, Hash(a), Hash(b))
	assert.NotEqual(t, Hash([]uint64{}), Hash([]uint64{0}))
}

func TestMapOrderIndependent(t *testing.T) {
	m1 := map[string]int{}
	m2 := map[string]int{}
	for i, k := range []string{"a", "b", "c", "d", "e"} {
		m1[k] = i
	}
	for i, k := range []string{"e", "d", "c", "b", "a"} {
		m2[k] = 4 - i
	}
	assert.Equal(t, Hash(m1), Hash(m2))
}

func TestHashableOverride(t *testing.T) {
	a := fingerprinted{ID: 7, Cache: []byte("x")}
	b := fingerprinted{ID: 7, Cache: []byte("yyyy")}
	assert.Equal(t, Hash(a), Hash(b))
}

func TestInterfaceHashesDynamicType(t *testing.T) {
	var x, y any = uint32(1), uint64(1)
	assert.NotEqual(t, Hash([]any{x}), Hash([]any{y}))
}

func TestMemoHashOnce(t *testing.T) {
	m := New([]float64{1, 2, 3})
	assert.Equal(t, Hash([]float64{1, 2, 3}), m.Hash())

	pinned := WithHash("anything", 42)
	assert.Equal(t, uint64(42), pinned.Hash())
	assert.Equal(t, "anything", pinned.Value())

	h := NewHasher()
	h.WriteUint64(42)
	assert.Equal(t, h.Sum64(), Hash(pinned))
}

func TestCombine(t *testing.T) {
	assert.Equal(t, Combine(1, 2), Combine(1, 2))
	assert.NotEqual(t, Combine(1, 2), Combine(2, 1))
}
