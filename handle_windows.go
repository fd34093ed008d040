//go:build windows

package serialstream

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// DCB.Flags bit masks. The x/sys DCB struct exposes the bitfield as one
// uint32; the masks follow winbase.h.
const (
	dcbBinary          = 0x00000001
	dcbParityCheck     = 0x00000002
	dcbOutxCtsFlow     = 0x00000004
	dcbOutX            = 0x00000100
	dcbInX             = 0x00000200
	dcbRTSControlMask  = 0x00003000
	dcbRTSControlShake = 0x00002000
)

// winHandle is the Windows communications-API backend. The port is opened
// non-overlapped with COMMTIMEOUTS that make ReadFile return immediately
// with whatever is buffered, which gives the try/wait split the stream
// needs; writes are blocking-capable and the port counts as always
// writable, mirroring how the output queue behaves on this API.
type winHandle struct {
	handle windows.Handle

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error

	// Windows cannot read back the state of its own output lines, so the
	// last explicitly set values are tracked here. Before the first SetLine
	// the reported state is whatever the zero value says, matching the
	// "unspecified until explicitly set" contract of Open.
	mu  sync.Mutex
	rts bool
	dtr bool
}

var _ Handle = (*winHandle)(nil)

func openHandle(port string, config Config) (Handle, error) {
	path := port
	if !strings.HasPrefix(path, `\\.\`) {
		path = `\\.\` + path
	}
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, port, err)
	}

	handle, err := windows.CreateFile(
		name,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0, // exclusive access
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDeviceUnavailable, port, err)
	}

	if err := windows.SetupComm(handle, 4096, 4096); err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("%w: setup %s: %v", ErrDeviceUnavailable, port, err)
	}

	if err := configureDCB(handle, config); err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigRejected, port, err)
	}

	timeouts := windows.CommTimeouts{
		// MAXDWORD interval with zero totals: ReadFile returns immediately
		// with the bytes already received, possibly none.
		ReadIntervalTimeout:         0xFFFFFFFF,
		ReadTotalTimeoutMultiplier:  0,
		ReadTotalTimeoutConstant:    0,
		WriteTotalTimeoutMultiplier: 0,
		WriteTotalTimeoutConstant:   0,
	}
	if err := windows.SetCommTimeouts(handle, &timeouts); err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("%w: timeouts %s: %v", ErrConfigRejected, port, err)
	}

	if err := windows.SetCommMask(handle, windows.EV_RXCHAR); err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("%w: comm mask %s: %v", ErrDeviceUnavailable, port, err)
	}

	return &winHandle{handle: handle, done: make(chan struct{})}, nil
}

// configureDCB applies the line parameters on top of the current comm
// state. The DTR and RTS control bits are preserved rather than rewritten
// so that opening a port does not move the control lines, except that
// RTS/CTS flow control requires RTS handshake mode.
func configureDCB(handle windows.Handle, config Config) error {
	var dcb windows.DCB
	dcb.DCBlength = uint32(unsafe.Sizeof(dcb))
	if err := windows.GetCommState(handle, &dcb); err != nil {
		return err
	}

	dcb.BaudRate = uint32(config.BaudRate)
	dcb.ByteSize = uint8(config.DataBits)
	dcb.Flags |= dcbBinary
	dcb.Flags &^= dcbParityCheck | dcbOutxCtsFlow | dcbOutX | dcbInX

	switch config.Parity {
	case ParityNone:
		dcb.Parity = windows.NOPARITY
	case ParityOdd:
		dcb.Parity = windows.ODDPARITY
		dcb.Flags |= dcbParityCheck
	case ParityEven:
		dcb.Parity = windows.EVENPARITY
		dcb.Flags |= dcbParityCheck
	case ParityMark:
		dcb.Parity = windows.MARKPARITY
		dcb.Flags |= dcbParityCheck
	case ParitySpace:
		dcb.Parity = windows.SPACEPARITY
		dcb.Flags |= dcbParityCheck
	}

	if config.StopBits == 2 {
		dcb.StopBits = windows.TWOSTOPBITS
	} else {
		dcb.StopBits = windows.ONESTOPBIT
	}

	switch config.FlowControl {
	case FlowControlRTSCTS:
		dcb.Flags |= dcbOutxCtsFlow
		dcb.Flags = (dcb.Flags &^ dcbRTSControlMask) | dcbRTSControlShake
	case FlowControlXONXOFF:
		dcb.Flags |= dcbOutX | dcbInX
	}

	return windows.SetCommState(handle, &dcb)
}

func (h *winHandle) TryRead(p []byte) (int, error) {
	var done uint32
	if err := windows.ReadFile(h.handle, p, &done, nil); err != nil {
		return 0, err
	}
	if done == 0 {
		return 0, ErrWouldBlock
	}
	return int(done), nil
}

func (h *winHandle) TryWrite(p []byte) (int, error) {
	var done uint32
	if err := windows.WriteFile(h.handle, p, &done, nil); err != nil {
		return 0, err
	}
	return int(done), nil
}

// WaitReadable blocks in WaitCommEvent until a character arrives. A watcher
// goroutine re-sets the comm mask on cancellation or close, which aborts
// the pending wait. A byte landing between the failed read attempt and this
// wait is picked up by the next EV_RXCHAR; serial traffic is bursty enough
// that the window does not matter in practice.
func (h *winHandle) WaitReadable(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-h.done:
			return windows.ERROR_INVALID_HANDLE
		default:
		}

		stop := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
			case <-h.done:
			case <-stop:
				return
			}
			windows.SetCommMask(h.handle, windows.EV_RXCHAR)
		}()

		var events uint32
		err := windows.WaitCommEvent(h.handle, &events, nil)
		close(stop)

		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-h.done:
			return windows.ERROR_INVALID_HANDLE
		default:
		}
		if err != nil {
			if err == windows.ERROR_OPERATION_ABORTED {
				continue
			}
			return err
		}
		if events&windows.EV_RXCHAR != 0 {
			return nil
		}
		// Mask rewrite or unrelated event, wait again.
	}
}

func (h *winHandle) WaitWritable(ctx context.Context) error {
	return ctx.Err()
}

func (h *winHandle) Lines() (Signals, error) {
	var status uint32
	if err := windows.GetCommModemStatus(h.handle, &status); err != nil {
		return Signals{}, err
	}
	h.mu.Lock()
	rts, dtr := h.rts, h.dtr
	h.mu.Unlock()
	return Signals{
		CTS: status&windows.MS_CTS_ON != 0,
		DSR: status&windows.MS_DSR_ON != 0,
		RI:  status&windows.MS_RING_ON != 0,
		DCD: status&windows.MS_RLSD_ON != 0,
		RTS: rts,
		DTR: dtr,
	}, nil
}

func (h *winHandle) SetLine(line Line, state bool) error {
	var fn uint32
	switch {
	case line == LineRTS && state:
		fn = windows.SETRTS
	case line == LineRTS:
		fn = windows.CLRRTS
	case line == LineDTR && state:
		fn = windows.SETDTR
	case line == LineDTR:
		fn = windows.CLRDTR
	default:
		return fmt.Errorf("line %s is read-only", line)
	}
	if err := windows.EscapeCommFunction(h.handle, fn); err != nil {
		return err
	}
	h.mu.Lock()
	if line == LineRTS {
		h.rts = state
	} else {
		h.dtr = state
	}
	h.mu.Unlock()
	return nil
}

func (h *winHandle) SendBreak(duration time.Duration) error {
	if err := windows.SetCommBreak(h.handle); err != nil {
		return err
	}
	time.Sleep(duration)
	return windows.ClearCommBreak(h.handle)
}

func (h *winHandle) DiscardInput() error {
	return windows.PurgeComm(h.handle, windows.PURGE_RXABORT|windows.PURGE_RXCLEAR)
}

func (h *winHandle) DiscardOutput() error {
	return windows.PurgeComm(h.handle, windows.PURGE_TXABORT|windows.PURGE_TXCLEAR)
}

func (h *winHandle) Drain() error {
	return windows.FlushFileBuffers(h.handle)
}

func (h *winHandle) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		// Aborts a pending WaitCommEvent before the handle goes away.
		windows.SetCommMask(h.handle, 0)
		h.closeErr = windows.CloseHandle(h.handle)
	})
	return h.closeErr
}
