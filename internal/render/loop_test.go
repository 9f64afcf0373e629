package render

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/annel0/monument/internal/viewport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newControls(autoRotate bool) *viewport.Controls {
	return viewport.NewControls(viewport.NewCamera(true, 800, 600), autoRotate, 1)
}

func TestWithFPS(t *testing.T) {
	assert.Equal(t, time.Second/DefaultFPS, NewLoop(newControls(false)).Interval())
	assert.Equal(t, time.Second/30, NewLoop(newControls(false), WithFPS(30)).Interval())
	assert.Equal(t, time.Second/DefaultFPS, NewLoop(newControls(false), WithFPS(0)).Interval())
}

func TestStepFansOutFrames(t *testing.T) {
	l := NewLoop(newControls(true))
	a, unsubA := l.Subscribe(4)
	b, unsubB := l.Subscribe(4)
	defer unsubB()

	first := l.Step()
	second := l.Step()
	assert.Equal(t, first.Seq+1, second.Seq)
	assert.NotEqual(t, first.Camera.Position, second.Camera.Position, "автоповорот двигает камеру")

	for _, ch := range []<-chan viewport.Frame{a, b} {
		assert.Equal(t, first.Seq, (<-ch).Seq)
		assert.Equal(t, second.Seq, (<-ch).Seq)
	}

	unsubA()
	unsubA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, l.Subscribers())
}

func TestSlowSubscriberDropsFrames(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := NewLoop(newControls(false), WithRegisterer(reg))
	ch, unsub := l.Subscribe(1)
	defer unsub()

	for i := 0; i < 5; i++ {
		l.Step()
	}

	assert.Len(t, ch, 1)
	assert.Equal(t, 5.0, testutil.ToFloat64(l.frames))
	assert.Equal(t, 4.0, testutil.ToFloat64(l.dropped))
}

func TestRunStopsOnCancel(t *testing.T) {
	l := NewLoop(newControls(false), WithFPS(200))
	ch, unsub := l.Subscribe(8)
	defer unsub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("кадр не получен")
	}
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("цикл не остановился")
	}
}
