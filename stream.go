package serialstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Stream provides non-blocking byte-stream access to a serial port together
// with modem control, buffer discard, and break-signal operations.
//
// A Stream exclusively owns its device handle from Open until Close. SendAll
// and ReceiveSome may suspend the calling goroutine until the device is
// writable or readable; every other method is a synchronous pass-through
// that never suspends.
//
// One goroutine may send while another receives, without extra locking; the
// two directions use independent device buffers. Overlapping SendAll calls
// from two goroutines are not serialized and interleave their bytes on the
// wire — callers must not issue them.
type Stream struct {
	mu     sync.RWMutex
	handle Handle
	port   string
	config Config
	hangup bool
	closed bool
}

// Open opens the named serial port and configures it with the given options.
//
// Open never touches the modem control lines: RTS and DTR are left in
// whatever state the OS leaves them, and callers that need a defined state
// must call SetRTS or SetDTR explicitly.
//
// The returned Stream must be released with Close; Close is idempotent, so
// deferring it is always safe.
func Open(port string, opts ...Option) (*Stream, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	handle, err := openHandle(port, config)
	if err != nil {
		return nil, err
	}

	return &Stream{
		handle: handle,
		port:   port,
		config: config,
		hangup: config.HangupOnClose,
	}, nil
}

// Port returns the port identifier the stream was opened with,
// e.g. "/dev/ttyUSB0" or "COM7".
func (s *Stream) Port() string {
	return s.port
}

// Config returns the configuration the stream was opened with.
func (s *Stream) Config() Config {
	return s.config
}

// Close releases the serial port. If hangup-on-close is enabled, DTR and RTS
// are deasserted first; failures of the hangup itself are ignored because
// the handle is being discarded regardless.
//
// Close is idempotent: the second and later calls are no-ops returning nil,
// and the device is released exactly once.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.hangup {
		// Best effort; the device may already be gone.
		_ = s.handle.SetLine(LineDTR, false)
		_ = s.handle.SetLine(LineRTS, false)
	}

	if err := s.handle.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrDeviceIO, s.port, err)
	}
	return nil
}

// guard returns the handle if the stream is still open.
func (s *Stream) guard() (Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("%w: %s", ErrStreamClosed, s.port)
	}
	return s.handle, nil
}

// SendAll writes all of data to the serial port, suspending whenever the
// device would block and resuming once it is writable again. It returns nil
// only after the entire buffer has been handed to the device.
//
// If ctx is cancelled while SendAll is suspended, the bytes already accepted
// by the device are not rolled back: the caller knows only that some prefix
// of data was sent.
func (s *Stream) SendAll(ctx context.Context, data []byte) error {
	h, err := s.guard()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	zeroWrites := 0
	for len(data) > 0 {
		n, err := h.TryWrite(data)
		switch {
		case errors.Is(err, ErrWouldBlock):
			zeroWrites = 0
			if err := h.WaitWritable(ctx); err != nil {
				return s.waitError(err)
			}
		case err != nil:
			return fmt.Errorf("%w: write %s: %v", ErrDeviceIO, s.port, err)
		case n == 0:
			// A device accepting zero bytes without signaling would-block
			// cannot make progress.
			zeroWrites++
			if zeroWrites >= 2 {
				return fmt.Errorf("%w: write %s: device accepted zero bytes twice", ErrDeviceIO, s.port)
			}
		default:
			zeroWrites = 0
			data = data[n:]
		}
	}
	return nil
}

// ReceiveSome reads between 1 and maxBytes bytes from the serial port,
// returning as soon as any data is available. If nothing is buffered it
// suspends until the device becomes readable, then retries.
//
// End-of-stream (for example the peer of a virtual port closed its side) is
// reported as io.EOF; it is terminal and distinct from "no data yet", which
// never returns.
func (s *Stream) ReceiveSome(ctx context.Context, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("%w: receive buffer size %d", ErrInvalidConfig, maxBytes)
	}
	h, err := s.guard()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]byte, maxBytes)
	zeroReads := 0
	for {
		n, err := h.TryRead(buf)
		switch {
		case errors.Is(err, ErrWouldBlock):
			zeroReads = 0
			if err := h.WaitReadable(ctx); err != nil {
				return nil, s.waitError(err)
			}
		case err != nil:
			// io.EOF passes through untouched as the end-of-stream signal.
			if errors.Is(err, io.EOF) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: read %s: %v", ErrDeviceIO, s.port, err)
		case n == 0:
			zeroReads++
			if zeroReads >= 2 {
				return nil, fmt.Errorf("%w: read %s: device yielded zero bytes twice", ErrDeviceIO, s.port)
			}
		default:
			return buf[:n], nil
		}
	}
}

// waitError translates a failed readiness wait. A context error propagates
// unmodified; anything else means the handle went away underneath us.
func (s *Stream) waitError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return fmt.Errorf("%w: %s", ErrStreamClosed, s.port)
	}
	return fmt.Errorf("%w: wait %s: %v", ErrDeviceIO, s.port, err)
}

// GetModemSignals returns the current state of all modem control signals.
func (s *Stream) GetModemSignals() (Signals, error) {
	h, err := s.guard()
	if err != nil {
		return Signals{}, err
	}
	sig, err := h.Lines()
	if err != nil {
		return Signals{}, fmt.Errorf("%w: modem status %s: %v", ErrDeviceIO, s.port, err)
	}
	return sig, nil
}

func (s *Stream) getLine(line Line) (bool, error) {
	sig, err := s.GetModemSignals()
	if err != nil {
		return false, err
	}
	switch line {
	case LineRTS:
		return sig.RTS, nil
	case LineDTR:
		return sig.DTR, nil
	case LineCTS:
		return sig.CTS, nil
	case LineDSR:
		return sig.DSR, nil
	case LineDCD:
		return sig.DCD, nil
	case LineRI:
		return sig.RI, nil
	default:
		return false, fmt.Errorf("%w: unknown line %d", ErrDeviceIO, line)
	}
}

func (s *Stream) setLine(line Line, state bool) error {
	h, err := s.guard()
	if err != nil {
		return err
	}
	if err := h.SetLine(line, state); err != nil {
		return fmt.Errorf("%w: set %s on %s: %v", ErrDeviceIO, line, s.port, err)
	}
	return nil
}

// GetRTS returns the current Request To Send state.
func (s *Stream) GetRTS() (bool, error) { return s.getLine(LineRTS) }

// SetRTS sets the Request To Send state.
func (s *Stream) SetRTS(state bool) error { return s.setLine(LineRTS, state) }

// GetDTR returns the current Data Terminal Ready state.
func (s *Stream) GetDTR() (bool, error) { return s.getLine(LineDTR) }

// SetDTR sets the Data Terminal Ready state.
func (s *Stream) SetDTR(state bool) error { return s.setLine(LineDTR, state) }

// GetCTS returns the current Clear To Send state.
func (s *Stream) GetCTS() (bool, error) { return s.getLine(LineCTS) }

// GetDSR returns the current Data Set Ready state.
func (s *Stream) GetDSR() (bool, error) { return s.getLine(LineDSR) }

// GetDCD returns the current Data Carrier Detect state.
func (s *Stream) GetDCD() (bool, error) { return s.getLine(LineDCD) }

// GetRI returns the current Ring Indicator state.
func (s *Stream) GetRI() (bool, error) { return s.getLine(LineRI) }

// SendBreak transmits a continuous stream of zero-valued bits for the given
// duration. Whether the duration is timed by the host or by the device is up
// to the backend.
func (s *Stream) SendBreak(duration time.Duration) error {
	h, err := s.guard()
	if err != nil {
		return err
	}
	if err := h.SendBreak(duration); err != nil {
		return fmt.Errorf("%w: break on %s: %v", ErrDeviceIO, s.port, err)
	}
	return nil
}

// DiscardInput throws away any received but unread data.
func (s *Stream) DiscardInput() error {
	h, err := s.guard()
	if err != nil {
		return err
	}
	if err := h.DiscardInput(); err != nil {
		return fmt.Errorf("%w: discard input %s: %v", ErrDeviceIO, s.port, err)
	}
	return nil
}

// DiscardOutput throws away any written but untransmitted data.
func (s *Stream) DiscardOutput() error {
	h, err := s.guard()
	if err != nil {
		return err
	}
	if err := h.DiscardOutput(); err != nil {
		return fmt.Errorf("%w: discard output %s: %v", ErrDeviceIO, s.port, err)
	}
	return nil
}

// Drain blocks until all written output has been transmitted by the device.
func (s *Stream) Drain() error {
	h, err := s.guard()
	if err != nil {
		return err
	}
	if err := h.Drain(); err != nil {
		return fmt.Errorf("%w: drain %s: %v", ErrDeviceIO, s.port, err)
	}
	return nil
}

// GetHangup reports whether Close will deassert DTR and RTS.
func (s *Stream) GetHangup() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, fmt.Errorf("%w: %s", ErrStreamClosed, s.port)
	}
	return s.hangup, nil
}

// SetHangup controls whether Close will deassert DTR and RTS. The flag is
// purely in-memory and only consulted during Close.
func (s *Stream) SetHangup(hangup bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: %s", ErrStreamClosed, s.port)
	}
	s.hangup = hangup
	return nil
}
