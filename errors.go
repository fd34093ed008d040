package serialstream

import "errors"

// Predefined error types for robust error handling
var (
	// ErrDeviceUnavailable is returned by Open when the port cannot be
	// acquired: missing device, permission denied, or already in use.
	ErrDeviceUnavailable = errors.New("serial device unavailable")

	// ErrConfigRejected is returned by Open when the device cannot honor
	// the requested parameters (baud rate, parity, and so on).
	ErrConfigRejected = errors.New("serial configuration rejected")

	// ErrDeviceIO is returned when a control or I/O primitive fails against
	// a live handle, for example after the device has been unplugged.
	ErrDeviceIO = errors.New("serial device I/O error")

	// ErrStreamClosed is returned by every capability call after Close.
	ErrStreamClosed = errors.New("serial stream is closed")

	// ErrWouldBlock is returned by Handle.TryRead and Handle.TryWrite when
	// the attempt could not complete immediately. The stream treats it as a
	// signal to suspend on the matching WaitReadable/WaitWritable call; it
	// never escapes SendAll or ReceiveSome.
	ErrWouldBlock = errors.New("operation would block")

	// ErrInvalidConfig is returned by configuration options for values that
	// no backend could accept (e.g. 9 data bits).
	ErrInvalidConfig = errors.New("invalid serial configuration")

	// ErrInvalidBaudRate is returned for baud rates without a termios or
	// DCB representation on this platform.
	ErrInvalidBaudRate = errors.New("invalid baud rate")
)
