package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-vision/src/vision"
)

type fakeAnalyzer struct {
	delay   time.Duration
	release chan struct{}
	calls   atomic.Int32
}

func (f *fakeAnalyzer) Name() string { return "fake" }

func (f *fakeAnalyzer) Analyze(ctx context.Context, image []byte) (*vision.Analysis, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	time.Sleep(f.delay)
	return &vision.Analysis{Description: vision.Description{Captions: []vision.Caption{{Text: string(image)}}}}, nil
}

func TestPoolDeliversResult(t *testing.T) {
	p := New(&fakeAnalyzer{}, 1)
	defer p.Close()

	done := make(chan string, 1)
	ok := p.Submit(context.Background(), []byte("hello"), func(a *vision.Analysis, err error) {
		require.NoError(t, err)
		done <- a.Caption()
	})
	require.True(t, ok)

	select {
	case got := <-done:
		assert.Equal(t, "hello", got)
	case <-time.After(2 * time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestPoolDropsWhenBusy(t *testing.T) {
	fa := &fakeAnalyzer{release: make(chan struct{})}
	p := New(fa, 1)

	results := make(chan error, 3)
	cb := func(_ *vision.Analysis, err error) { results <- err }

	require.True(t, p.Submit(context.Background(), []byte("a"), cb))
	// Wait until the worker picked up the first job so the queue slot is free.
	require.Eventually(t, func() bool { return fa.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	assert.True(t, p.Submit(context.Background(), []byte("b"), cb), "queue slot is free")
	assert.False(t, p.Submit(context.Background(), []byte("c"), cb), "queue slot is taken")

	close(fa.release)
	p.Close()
	assert.Len(t, results, 2)
}

func TestPoolHonoursDeadline(t *testing.T) {
	p := New(&fakeAnalyzer{delay: time.Second}, 1)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	require.True(t, p.Submit(ctx, []byte("slow"), func(_ *vision.Analysis, err error) { done <- err }))

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	case <-time.After(500 * time.Millisecond):
		t.Fatal("deadline not honoured")
	}
}

func TestPoolExpiredJob(t *testing.T) {
	fa := &fakeAnalyzer{}
	p := New(fa, 1)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	require.True(t, p.Submit(ctx, nil, func(_ *vision.Analysis, err error) { done <- err }))
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int32(0), fa.calls.Load())
}

func TestCloseTwice(t *testing.T) {
	p := New(&fakeAnalyzer{}, 2)
	p.Close()
	p.Close()
}
