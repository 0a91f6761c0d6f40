package dynany

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/vellum/pkg/types"
)

type point struct{ X, Y float64 }

func TestZeroDynIsUnit(t *testing.T) {
	var d Dyn
	assert.Equal(t, reflect.TypeFor[types.Unit](), d.Type())
	u, ok := Downcast[types.Unit](d)
	assert.True(t, ok)
	assert.Equal(t, types.Unit{}, u)
}

func TestDowncastOwned(t *testing.T) {
	d := New(point{1, 2})
	assert.False(t, d.IsRef())
	assert.Equal(t, "dynany.point", d.TypeName())

	p, ok := Downcast[point](d)
	require.True(t, ok)
	assert.Equal(t, point{1, 2}, p)

	_, ok = Downcast[float64](d)
	assert.False(t, ok)
}

func TestRefDoesNotCopy(t *testing.T) {
	owner := &point{3, 4}
	d := Ref(owner)

	assert.True(t, d.IsRef())
	assert.Equal(t, reflect.TypeFor[point](), d.Type())

	p, ok := DowncastRef[point](d)
	require.True(t, ok)
	assert.Same(t, owner, p)

	owner.X = 10
	v, ok := Downcast[point](d)
	require.True(t, ok)
	assert.Equal(t, 10.0, v.X)
	assert.Equal(t, point{10, 4}, d.Elem())
}

func TestDowncastRefRejectsOwned(t *testing.T) {
	_, ok := DowncastRef[point](New(point{}))
	assert.False(t, ok)
}

func TestSharedRefCount(t *testing.T) {
	s := NewShared("font data")
	assert.Equal(t, int64(1), s.Refs())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Retain()
			_ = s.Value()
			s.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), s.Refs())
	assert.Equal(t, reflect.TypeFor[string](), s.Type())
	assert.True(t, s.Release())
}

func TestSharedOverRelease(t *testing.T) {
	s := NewShared(1)
	s.Release()
	assert.Panics(t, func() { s.Release() })
}
