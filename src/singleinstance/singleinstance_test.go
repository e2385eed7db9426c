package singleinstance

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freePort reserves a loopback port range of one for the test.
func freePort(t *testing.T) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback unavailable: %v", err)
	}
	port := lis.Addr().(*net.TCPAddr).Port
	require.NoError(t, lis.Close())
	t.Setenv(PortStartEnvVar, strconv.Itoa(port))
	t.Setenv(PortEndEnvVar, strconv.Itoa(port))
}

func startServer(t *testing.T, ctx context.Context) Server {
	t.Helper()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback listen unavailable in this environment: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestServerClientRoundTrip(t *testing.T) {
	freePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	type reply struct {
		delegated bool
		text      string
		err       error
	}
	done := make(chan reply, 1)
	go func() {
		delegated, text, err := NewClient().TryCapture(ctx)
		done <- reply{delegated, text, err}
	}()

	conn, err := srv.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.RespondSuccess("ANALYSIS RESULTS:\n"))
	require.NoError(t, conn.Close())

	got := <-done
	require.NoError(t, got.err)
	assert.True(t, got.delegated)
	assert.Equal(t, "ANALYSIS RESULTS:\n", got.text)
}

func TestClientReceivesError(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantBusy bool
	}{
		{name: "Busy", reply: "capture already running", wantBusy: true},
		{name: "Other", reply: "analysis failed: 401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			freePort(t)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv := startServer(t, ctx)

			errCh := make(chan error, 1)
			go func() {
				_, _, err := NewClient().TryCapture(ctx)
				errCh <- err
			}()

			conn, err := srv.Next(ctx)
			require.NoError(t, err)
			require.NoError(t, conn.RespondError(tt.reply))
			require.NoError(t, conn.Close())

			got := <-errCh
			assert.EqualError(t, got, tt.reply)
			assert.Equal(t, tt.wantBusy, errors.Is(got, ErrBusy))
		})
	}
}

func TestSecondServerReportsRunning(t *testing.T) {
	freePort(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	startServer(t, ctx)

	err := NewServer().Start(ctx)
	assert.True(t, errors.Is(err, ErrRunning), "got %v", err)
}

func TestNoResident(t *testing.T) {
	freePort(t)
	delegated, _, err := NewClient().TryCapture(context.Background())
	assert.NoError(t, err)
	assert.False(t, delegated)
}

func TestNextAfterClose(t *testing.T) {
	freePort(t)
	srv := startServer(t, context.Background())
	require.NoError(t, srv.Close())

	_, err := srv.Next(context.Background())
	assert.ErrorIs(t, err, net.ErrClosed)
	assert.Equal(t, 0, srv.Port())
}

func TestPortRange(t *testing.T) {
	t.Setenv(PortStartEnvVar, "70000")
	t.Setenv(PortEndEnvVar, "80")
	start, end := portRange()
	assert.Equal(t, 1024, start)
	assert.Equal(t, 65535, end)

	t.Setenv(PortStartEnvVar, "junk")
	t.Setenv(PortEndEnvVar, "")
	start, end = portRange()
	assert.Equal(t, defaultPortStart, start)
	assert.Equal(t, defaultPortEnd, end)
}
