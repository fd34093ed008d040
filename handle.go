package serialstream

import (
	"context"
	"time"
)

// Line identifies a single modem control line.
type Line int

const (
	LineRTS Line = iota // Request To Send (output)
	LineDTR             // Data Terminal Ready (output)
	LineCTS             // Clear To Send (input)
	LineDSR             // Data Set Ready (input)
	LineDCD             // Data Carrier Detect (input)
	LineRI              // Ring Indicator (input)
)

func (l Line) String() string {
	switch l {
	case LineRTS:
		return "RTS"
	case LineDTR:
		return "DTR"
	case LineCTS:
		return "CTS"
	case LineDSR:
		return "DSR"
	case LineDCD:
		return "DCD"
	case LineRI:
		return "RI"
	default:
		return "unknown"
	}
}

// Signals represents modem control signal states
type Signals struct {
	CTS bool // Clear To Send
	DSR bool // Data Set Ready
	RI  bool // Ring Indicator
	DCD bool // Data Carrier Detect
	RTS bool // Request To Send
	DTR bool // Data Terminal Ready
}

// Handle is the contract a Stream requires from an open serial device.
//
// TryRead and TryWrite must never block: an attempt that cannot complete
// immediately returns ErrWouldBlock. TryRead returns io.EOF when the device
// signals end-of-stream (e.g. the peer of a virtual port hung up).
// WaitReadable and WaitWritable suspend the calling goroutine until the
// device is ready, the context is cancelled, or the handle is closed.
//
// The platform backends (POSIX termios, Windows communications API) are
// selected at build time. The interface is exported so tests can substitute
// an in-memory handle.
type Handle interface {
	TryRead(p []byte) (int, error)
	TryWrite(p []byte) (int, error)
	WaitReadable(ctx context.Context) error
	WaitWritable(ctx context.Context) error

	Lines() (Signals, error)
	SetLine(line Line, state bool) error
	SendBreak(duration time.Duration) error

	DiscardInput() error
	DiscardOutput() error
	Drain() error

	Close() error
}
