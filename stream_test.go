package serialstream

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mockHandle scripts device behavior and counts every device access so
// tests can assert that a closed stream never touches the handle.
type mockHandle struct {
	mu sync.Mutex

	reads  []mockResult // consumed in order; exhausted → ErrWouldBlock
	writes []mockResult // consumed in order; exhausted → accept everything

	written []byte
	lines   Signals

	setLineCalls []lineCall
	breaks       []time.Duration
	discardIn    int
	discardOut   int
	drains       int
	closes       int
	deviceCalls  int

	waitReadableErr error
	blockReadable   bool // WaitReadable blocks until ctx is cancelled
}

type mockResult struct {
	n   int
	err error
}

type lineCall struct {
	line  Line
	state bool
}

func (m *mockHandle) touch() {
	m.deviceCalls++
}

func (m *mockHandle) TryRead(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	if len(m.reads) == 0 {
		return 0, ErrWouldBlock
	}
	r := m.reads[0]
	m.reads = m.reads[1:]
	if r.err != nil {
		return 0, r.err
	}
	for i := 0; i < r.n; i++ {
		p[i] = byte(i)
	}
	return r.n, nil
}

func (m *mockHandle) TryWrite(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	if len(m.writes) == 0 {
		m.written = append(m.written, p...)
		return len(p), nil
	}
	w := m.writes[0]
	m.writes = m.writes[1:]
	if w.err != nil {
		return 0, w.err
	}
	n := w.n
	if n > len(p) {
		n = len(p)
	}
	m.written = append(m.written, p[:n]...)
	return n, nil
}

func (m *mockHandle) WaitReadable(ctx context.Context) error {
	m.mu.Lock()
	err := m.waitReadableErr
	block := m.blockReadable
	m.touch()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (m *mockHandle) WaitWritable(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	return ctx.Err()
}

func (m *mockHandle) Lines() (Signals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	return m.lines, nil
}

func (m *mockHandle) SetLine(line Line, state bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	m.setLineCalls = append(m.setLineCalls, lineCall{line, state})
	return nil
}

func (m *mockHandle) SendBreak(duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	m.breaks = append(m.breaks, duration)
	return nil
}

func (m *mockHandle) DiscardInput() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	m.discardIn++
	return nil
}

func (m *mockHandle) DiscardOutput() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	m.discardOut++
	return nil
}

func (m *mockHandle) Drain() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	m.drains++
	return nil
}

func (m *mockHandle) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch()
	m.closes++
	return nil
}

func newMockStream(m *mockHandle, hangup bool) *Stream {
	return &Stream{handle: m, port: "mock0", hangup: hangup}
}

func TestCloseIsIdempotent(t *testing.T) {
	m := &mockHandle{}
	s := newMockStream(m, false)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.Equal(t, 1, m.closes, "device must be released exactly once")
}

func TestClosedStreamRejectsEverything(t *testing.T) {
	m := &mockHandle{}
	s := newMockStream(m, false)
	require.NoError(t, s.Close())

	callsAfterClose := m.deviceCalls

	require.ErrorIs(t, s.SendAll(context.Background(), []byte("x")), ErrStreamClosed)
	_, err := s.ReceiveSome(context.Background(), 16)
	require.ErrorIs(t, err, ErrStreamClosed)
	_, err = s.GetRTS()
	require.ErrorIs(t, err, ErrStreamClosed)
	require.ErrorIs(t, s.SetRTS(true), ErrStreamClosed)
	_, err = s.GetCTS()
	require.ErrorIs(t, err, ErrStreamClosed)
	require.ErrorIs(t, s.DiscardInput(), ErrStreamClosed)
	require.ErrorIs(t, s.DiscardOutput(), ErrStreamClosed)
	require.ErrorIs(t, s.SendBreak(time.Millisecond), ErrStreamClosed)
	require.ErrorIs(t, s.Drain(), ErrStreamClosed)
	require.ErrorIs(t, s.SetHangup(true), ErrStreamClosed)
	_, err = s.GetHangup()
	require.ErrorIs(t, err, ErrStreamClosed)

	require.Equal(t, callsAfterClose, m.deviceCalls, "closed stream must not touch the device")
}

func TestHangupOnCloseDeassertsLines(t *testing.T) {
	m := &mockHandle{}
	s := newMockStream(m, true)

	require.NoError(t, s.Close())
	require.Equal(t, []lineCall{
		{LineDTR, false},
		{LineRTS, false},
	}, m.setLineCalls)
}

func TestNoHangupLeavesLinesAlone(t *testing.T) {
	m := &mockHandle{}
	s := newMockStream(m, true)

	require.NoError(t, s.SetHangup(false))
	require.NoError(t, s.Close())
	require.Empty(t, m.setLineCalls)
}

func TestSendAllLoopsOverPartialWrites(t *testing.T) {
	m := &mockHandle{
		writes: []mockResult{
			{n: 2},
			{err: ErrWouldBlock},
			{n: 3},
			{err: ErrWouldBlock},
			{n: 5},
		},
	}
	s := newMockStream(m, false)

	data := []byte("0123456789")
	require.NoError(t, s.SendAll(context.Background(), data))
	require.Equal(t, data, m.written)
}

func TestSendAllEmptyBuffer(t *testing.T) {
	m := &mockHandle{}
	s := newMockStream(m, false)
	require.NoError(t, s.SendAll(context.Background(), nil))
}

func TestSendAllZeroWriteAnomaly(t *testing.T) {
	m := &mockHandle{
		writes: []mockResult{{n: 0}, {n: 0}},
	}
	s := newMockStream(m, false)

	err := s.SendAll(context.Background(), []byte("abc"))
	require.ErrorIs(t, err, ErrDeviceIO)
}

func TestSendAllZeroWriteRecoversAfterProgress(t *testing.T) {
	m := &mockHandle{
		writes: []mockResult{{n: 0}, {n: 2}, {n: 0}, {n: 1}},
	}
	s := newMockStream(m, false)

	require.NoError(t, s.SendAll(context.Background(), []byte("abc")))
	require.Equal(t, []byte("abc"), m.written)
}

func TestReceiveSomeReturnsAvailableBytes(t *testing.T) {
	m := &mockHandle{
		reads: []mockResult{{n: 4}},
	}
	s := newMockStream(m, false)

	buf, err := s.ReceiveSome(context.Background(), 1024)
	require.NoError(t, err)
	require.Len(t, buf, 4)
}

func TestReceiveSomeRetriesAfterWouldBlock(t *testing.T) {
	m := &mockHandle{
		reads: []mockResult{{err: ErrWouldBlock}, {n: 2}},
	}
	s := newMockStream(m, false)

	buf, err := s.ReceiveSome(context.Background(), 16)
	require.NoError(t, err)
	require.Len(t, buf, 2)
}

func TestReceiveSomeEOF(t *testing.T) {
	m := &mockHandle{
		reads: []mockResult{{err: io.EOF}},
	}
	s := newMockStream(m, false)

	_, err := s.ReceiveSome(context.Background(), 16)
	require.ErrorIs(t, err, io.EOF)
	require.NotErrorIs(t, err, ErrDeviceIO)
}

func TestReceiveSomeZeroReadAnomaly(t *testing.T) {
	m := &mockHandle{
		reads: []mockResult{{n: 0}, {n: 0}},
	}
	s := newMockStream(m, false)

	_, err := s.ReceiveSome(context.Background(), 1024)
	require.ErrorIs(t, err, ErrDeviceIO)
}

func TestReceiveSomeCancellationLeavesStreamOpen(t *testing.T) {
	m := &mockHandle{blockReadable: true}
	s := newMockStream(m, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.ReceiveSome(ctx, 16)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled receive did not return")
	}

	// The stream is still open and closes cleanly afterwards.
	require.NoError(t, s.SendBreak(time.Millisecond))
	require.NoError(t, s.Close())
	require.Equal(t, 1, m.closes)
}

func TestSendAllPreCancelledContext(t *testing.T) {
	m := &mockHandle{}
	s := newMockStream(m, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.SendAll(ctx, []byte("abc"))
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, m.written)
}

func TestSendBreakRecordsDuration(t *testing.T) {
	m := &mockHandle{}
	s := newMockStream(m, false)

	require.NoError(t, s.SendBreak(100*time.Millisecond))
	require.Equal(t, []time.Duration{100 * time.Millisecond}, m.breaks)
}

func TestDiscardBuffers(t *testing.T) {
	m := &mockHandle{}
	s := newMockStream(m, false)

	require.NoError(t, s.DiscardInput())
	require.NoError(t, s.DiscardOutput())
	require.Equal(t, 1, m.discardIn)
	require.Equal(t, 1, m.discardOut)
}

func TestModemSignalPassThrough(t *testing.T) {
	m := &mockHandle{lines: Signals{CTS: true, DCD: true, RTS: true}}
	s := newMockStream(m, false)

	cts, err := s.GetCTS()
	require.NoError(t, err)
	require.True(t, cts)

	dsr, err := s.GetDSR()
	require.NoError(t, err)
	require.False(t, dsr)

	dcd, err := s.GetDCD()
	require.NoError(t, err)
	require.True(t, dcd)

	ri, err := s.GetRI()
	require.NoError(t, err)
	require.False(t, ri)

	sig, err := s.GetModemSignals()
	require.NoError(t, err)
	require.Equal(t, m.lines, sig)

	require.NoError(t, s.SetDTR(true))
	require.Equal(t, []lineCall{{LineDTR, true}}, m.setLineCalls)
}

func TestHangupFlag(t *testing.T) {
	m := &mockHandle{}
	s := newMockStream(m, true)

	hangup, err := s.GetHangup()
	require.NoError(t, err)
	require.True(t, hangup)

	calls := m.deviceCalls
	require.NoError(t, s.SetHangup(false))
	hangup, err = s.GetHangup()
	require.NoError(t, err)
	require.False(t, hangup)
	require.Equal(t, calls, m.deviceCalls, "hangup flag is in-memory only")
}

func TestReceiveSomeInvalidSize(t *testing.T) {
	m := &mockHandle{}
	s := newMockStream(m, false)

	_, err := s.ReceiveSome(context.Background(), 0)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidConfig))
}
