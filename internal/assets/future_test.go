package assets

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/annel0/monument/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureCompletesOnce(t *testing.T) {
	f := NewFuture("tail1")
	_, err := f.Result()
	assert.ErrorIs(t, err, ErrPending)

	var calls int32
	f.OnComplete(func(m *scene.Mesh, err error) { atomic.AddInt32(&calls, 1) })

	mesh := &scene.Mesh{Positions: []float32{0, 0, 0}}
	assert.True(t, f.Complete(mesh, nil))
	assert.False(t, f.Complete(nil, errors.New("late")))

	got, err := f.Result()
	require.NoError(t, err)
	assert.Same(t, mesh, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// колбэк после завершения вызывается сразу
	var late int32
	f.OnComplete(func(m *scene.Mesh, err error) { atomic.AddInt32(&late, 1) })
	assert.Equal(t, int32(1), atomic.LoadInt32(&late))
}

func TestFutureWaitSeesCallbackEffects(t *testing.T) {
	f := NewFuture("tail1")
	var attached int32
	f.OnComplete(func(m *scene.Mesh, err error) {
		time.Sleep(5 * time.Millisecond)
		atomic.StoreInt32(&attached, 1)
	})

	go f.Complete(&scene.Mesh{}, nil)
	_, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attached))
}

func TestFutureErrorDropsMesh(t *testing.T) {
	f := Resolved("stairs1", &scene.Mesh{}, errors.New("boom"))
	mesh, err := f.Result()
	assert.Nil(t, mesh)
	assert.EqualError(t, err, "boom")
}

func TestFutureWait(t *testing.T) {
	f := NewFuture("pillar1")
	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Complete(&scene.Mesh{}, nil)
	}()
	_, err := f.Wait(context.Background())
	require.NoError(t, err)

	pending := NewFuture("never")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = pending.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
