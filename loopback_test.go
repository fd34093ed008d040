//go:build linux || darwin

package serialstream

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

// openLoopback opens a Stream on the slave side of a fresh pty pair. The
// master *os.File plays the remote endpoint.
func openLoopback(t *testing.T, opts ...Option) (*Stream, *os.File) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	stream, err := Open(slave.Name(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { stream.Close() })
	return stream, master
}

func TestLoopbackRoundTrip(t *testing.T) {
	stream, master := openLoopback(t)
	ctx := context.Background()

	payload := []byte("the quick brown fox jumps over the lazy dog\x00\x01\x02\xff")
	require.NoError(t, stream.SendAll(ctx, payload))

	got := make([]byte, 0, len(payload))
	buf := make([]byte, 16)
	for len(got) < len(payload) {
		master.SetReadDeadline(time.Now().Add(time.Second))
		n, err := master.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	require.True(t, bytes.Equal(payload, got), "round-trip mismatch: %q != %q", got, payload)
}

func TestLoopbackReceive(t *testing.T) {
	stream, master := openLoopback(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := master.Write([]byte("pong"))
	require.NoError(t, err)

	got := make([]byte, 0, 4)
	for len(got) < 4 {
		chunk, err := stream.ReceiveSome(ctx, 1024)
		require.NoError(t, err)
		require.NotEmpty(t, chunk)
		got = append(got, chunk...)
	}
	require.Equal(t, []byte("pong"), got)
}

func TestLoopbackReceiveSuspendsUntilData(t *testing.T) {
	stream, master := openLoopback(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	type result struct {
		buf []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		buf, err := stream.ReceiveSome(ctx, 64)
		done <- result{buf, err}
	}()

	// Nothing written yet; the receive must stay suspended.
	select {
	case r := <-done:
		t.Fatalf("receive returned early: %v %v", r.buf, r.err)
	case <-time.After(50 * time.Millisecond):
	}

	_, err := master.Write([]byte("x"))
	require.NoError(t, err)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		require.Equal(t, []byte("x"), r.buf)
	case <-time.After(time.Second):
		t.Fatal("receive did not wake after data arrived")
	}
}

func TestLoopbackCancelSuspendedReceive(t *testing.T) {
	stream, _ := openLoopback(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := stream.ReceiveSome(ctx, 64)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled receive did not return")
	}

	// The stream survived the cancellation.
	require.NoError(t, stream.Close())
}

func TestLoopbackEOFOnPeerClose(t *testing.T) {
	stream, master := openLoopback(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, master.Close())

	_, err := stream.ReceiveSome(ctx, 64)
	require.ErrorIs(t, err, io.EOF)
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open("/dev/does-not-exist")
	require.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestOpenRejectsUnknownBaudRate(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	defer master.Close()
	defer slave.Close()

	_, err = Open(slave.Name(), WithBaudRate(123456))
	require.ErrorIs(t, err, ErrConfigRejected)
}

func TestLoopbackDiscardInput(t *testing.T) {
	stream, master := openLoopback(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := master.Write([]byte("stale"))
	require.NoError(t, err)
	// Give the kernel a moment to move the bytes into the slave queue.
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, stream.DiscardInput())

	_, err = master.Write([]byte("fresh"))
	require.NoError(t, err)

	buf, err := stream.ReceiveSome(ctx, 64)
	require.NoError(t, err)
	require.Equal(t, []byte("fresh"), buf)
}
