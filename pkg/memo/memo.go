package memo

// Memo pairs a value with its hash, computed once at construction.
type Memo[T any] struct {
	value T
	hash  uint64
}

// New hashes v and wraps it.
func New[T any](v T) Memo[T] {
	return Memo[T]{value: v, hash: Hash(v)}
}

// WithHash wraps v with a hash the caller already computed.
func WithHash[T any](v T, hash uint64) Memo[T] {
	return Memo[T]{value: v, hash: hash}
}

// Value returns the wrapped value.
func (m Memo[T]) Value() T { return m.value }

// Hash returns the stored hash without recomputing it.
func (m Memo[T]) Hash() uint64 { return m.hash }

// HashInto writes the stored hash, so a Memo nested in another value does
// not rehash its content.
func (m Memo[T]) HashInto(h *Hasher) { h.WriteUint64(m.hash) }
