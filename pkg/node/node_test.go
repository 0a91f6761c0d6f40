package node

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/vellum/pkg/dynany"
)

func addOne(_ context.Context, in dynany.Dyn) (dynany.Dyn, error) {
	v, ok := dynany.Downcast[int](in)
	if !ok {
		return dynany.Dyn{}, errors.New("want int")
	}
	return dynany.New(v + 1), nil
}

func TestFutureIsLazyAndPolledOnce(t *testing.T) {
	calls := 0
	f := NewFuture(func(context.Context) (dynany.Dyn, error) {
		calls++
		return dynany.New("done"), nil
	})
	assert.Equal(t, 0, calls)

	for range 3 {
		v, err := f.Poll(context.Background())
		require.NoError(t, err)
		s, _ := dynany.Downcast[string](v)
		assert.Equal(t, "done", s)
	}
	assert.Equal(t, 1, calls)
}

func TestReadyAndFailed(t *testing.T) {
	v, err := Ready(dynany.New(3)).Poll(context.Background())
	require.NoError(t, err)
	n, _ := dynany.Downcast[int](v)
	assert.Equal(t, 3, n)

	boom := errors.New("boom")
	_, err = Failed(boom).Poll(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestThenSkipsOnError(t *testing.T) {
	called := false
	f := Failed(errors.New("upstream")).Then(func(context.Context, dynany.Dyn) (dynany.Dyn, error) {
		called = true
		return dynany.Dyn{}, nil
	})
	_, err := f.Poll(context.Background())
	assert.Error(t, err)
	assert.False(t, called)
}

func TestComposeNode(t *testing.T) {
	n := ComposeNode{First: FnNode(addOne), Second: FnNode(addOne)}
	v, err := Evaluate(context.Background(), n, dynany.New(1))
	require.NoError(t, err)
	got, _ := dynany.Downcast[int](v)
	assert.Equal(t, 3, got)

	_, err = Evaluate(context.Background(), n, dynany.New("x"))
	assert.EqualError(t, err, "want int")
}
