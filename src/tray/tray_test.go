package tray

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image/png"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerDropsWhileBusy(t *testing.T) {
	release := make(chan struct{})
	var runs atomic.Int32
	r := New("test", func(ctx context.Context) error {
		runs.Add(1)
		<-release
		return nil
	})

	require.True(t, r.Trigger())
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	assert.True(t, r.Busy())
	assert.False(t, r.Trigger())

	close(release)
	require.Eventually(t, func() bool { return !r.Busy() }, time.Second, time.Millisecond)
	assert.True(t, r.Trigger())
	r.Shutdown()
	assert.Equal(t, int32(2), runs.Load())
}

func TestDoSharesBusyFlag(t *testing.T) {
	release := make(chan struct{})
	r := New("test", func(ctx context.Context) error {
		<-release
		return nil
	})
	require.True(t, r.Trigger())
	require.Eventually(t, r.Busy, time.Second, time.Millisecond)

	err := r.Do(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.Eventually(t, func() bool { return !r.Busy() }, time.Second, time.Millisecond)

	want := errors.New("grab failed")
	assert.Equal(t, want, r.Do(func(ctx context.Context) error { return want }))
	assert.False(t, r.Busy())
	r.Shutdown()
}

func TestShutdownCancelsCapture(t *testing.T) {
	r := New("test", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.True(t, r.Trigger())

	done := make(chan struct{})
	go func() { r.Shutdown(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not cancel the capture")
	}
}

func TestTriggerRecoversAfterError(t *testing.T) {
	r := New("test", func(ctx context.Context) error { return errors.New("no frame") })
	require.True(t, r.Trigger())
	require.Eventually(t, func() bool { return !r.Busy() }, time.Second, time.Millisecond)
	r.Shutdown()
}

func TestIconPNG(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(iconPNG()))
	require.NoError(t, err)
	assert.Equal(t, iconSize, img.Bounds().Dx())
}

func TestWrapICO(t *testing.T) {
	data := iconPNG()
	ico := wrapICO(data, iconSize)
	require.Len(t, ico, 22+len(data))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(ico[2:4]))
	assert.Equal(t, uint32(len(data)), binary.LittleEndian.Uint32(ico[14:18]))
	assert.Equal(t, uint32(22), binary.LittleEndian.Uint32(ico[18:22]))
	assert.Equal(t, data, ico[22:])
}
