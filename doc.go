// Package serialstream provides asynchronous, context-aware access to
// serial ports (RS-232 and USB-serial) on Linux, macOS and Windows.
//
// The central type is the Stream: a non-blocking byte stream over one
// exclusively-owned serial device, with out-of-band modem control (RTS, DTR,
// CTS, DSR, DCD, RI), break-signal transmission, buffer discard, and a
// hangup-on-close policy. Reads and writes suspend the calling goroutine
// while the device would block and resume on readiness, so a Stream slots
// directly into goroutine-per-connection designs.
//
// # Basic Usage
//
// Open a port with default configuration (115200 8N1, no flow control):
//
//	stream, err := serialstream.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stream.Close()
//
//	err = stream.SendAll(ctx, []byte("AT\r\n"))
//	reply, err := stream.ReceiveSome(ctx, 256)
//
// SendAll returns only after the whole buffer has been handed to the
// device. ReceiveSome returns between 1 and max bytes as soon as anything
// arrives, and io.EOF once the device signals end-of-stream.
//
// # Configuration Options
//
// Use functional options for custom configuration:
//
//	stream, err := serialstream.Open("/dev/ttyUSB0",
//	    serialstream.WithBaudRate(9600),
//	    serialstream.WithParity(serialstream.ParityEven),
//	    serialstream.WithFlowControl(serialstream.FlowControlRTSCTS),
//	    serialstream.WithHangupOnClose(false),
//	)
//
// Opening a stream never moves the modem control lines; their state at open
// time is whatever the OS left behind. Callers that depend on a particular
// RTS or DTR level must set it explicitly after Open:
//
//	err = stream.SetRTS(true)
//	err = stream.SetDTR(true)
//
// # Cancellation and Timeouts
//
// SendAll and ReceiveSome take a context. Cancelling it while the call is
// suspended unwinds the suspension and returns ctx.Err(); the stream stays
// open and usable. A timeout is just a deadline on the surrounding context:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	reply, err := stream.ReceiveSome(ctx, 1024)
//
// Bytes accepted by the device before a cancellation are not rolled back: a
// cancelled SendAll leaves an unknown prefix of the buffer on the wire.
//
// # Lifecycle
//
// Close is idempotent and releases the device exactly once, so `defer
// stream.Close()` is always safe. By default Close deasserts DTR and RTS
// first (hangup-on-close), telling the remote end the line went away;
// disable it with WithHangupOnClose(false) or SetHangup(false). After Close
// every other method fails with ErrStreamClosed without touching the
// device.
//
// # Concurrency
//
// One goroutine may send while another receives. The Stream does not
// serialize overlapping SendAll calls; issuing them from two goroutines
// interleaves their bytes on the wire and is a caller error.
//
// # Error Handling
//
// The package classifies failures with sentinel errors for errors.Is:
//
//	var (
//	    ErrDeviceUnavailable // open failed: missing, busy, permission denied
//	    ErrConfigRejected    // open failed: parameters unsupported
//	    ErrDeviceIO          // a live-handle primitive failed
//	    ErrStreamClosed      // capability call after Close
//	)
//
// # Platform Support
//
// The POSIX backend (Linux, macOS) drives a termios descriptor in
// non-blocking mode and waits for readiness with poll(2). The Windows
// backend uses the Win32 communications API (SetCommState, WaitCommEvent,
// EscapeCommFunction). The backend is chosen at build time.
package serialstream
