//go:build linux || darwin

package serialstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// posixHandle is the termios backend. The descriptor stays in O_NONBLOCK
// mode for its whole life; readiness waits go through poll(2) paired with a
// self-pipe per direction so that a context cancellation or Close can wake a
// suspended waiter.
type posixHandle struct {
	fd     int
	rdWake [2]int
	wrWake [2]int

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

var _ Handle = (*posixHandle)(nil)

// openHandle opens and configures the device for the POSIX backend.
func openHandle(port string, config Config) (Handle, error) {
	fd, err := unix.Open(port, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDeviceUnavailable, port, err)
	}

	if config.Exclusive {
		if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("%w: lock %s: %v", ErrDeviceUnavailable, port, err)
		}
	}

	if err := configureTermios(fd, config); err != nil {
		unix.Close(fd)
		if errors.Is(err, ErrConfigRejected) || errors.Is(err, ErrInvalidBaudRate) {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigRejected, port, err)
		}
		return nil, fmt.Errorf("%w: configure %s: %v", ErrConfigRejected, port, err)
	}

	h := &posixHandle{fd: fd, done: make(chan struct{})}
	if err := openWakePipe(&h.rdWake); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: pipe: %v", ErrDeviceUnavailable, err)
	}
	if err := openWakePipe(&h.wrWake); err != nil {
		unix.Close(h.rdWake[0])
		unix.Close(h.rdWake[1])
		unix.Close(fd)
		return nil, fmt.Errorf("%w: pipe: %v", ErrDeviceUnavailable, err)
	}
	return h, nil
}

func openWakePipe(p *[2]int) error {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return err
	}
	for _, fd := range fds {
		unix.SetNonblock(fd, true)
		unix.CloseOnExec(fd)
	}
	*p = fds
	return nil
}

func (h *posixHandle) TryRead(p []byte) (int, error) {
	for {
		n, err := unix.Read(h.fd, p)
		switch err {
		case nil:
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, ErrWouldBlock
		case unix.EIO:
			// A hung-up pty or yanked USB adapter surfaces as EIO once the
			// peer side is gone. Report it as end-of-stream.
			return 0, io.EOF
		default:
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

func (h *posixHandle) TryWrite(p []byte) (int, error) {
	for {
		n, err := unix.Write(h.fd, p)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, ErrWouldBlock
		default:
			return 0, err
		}
	}
}

func (h *posixHandle) WaitReadable(ctx context.Context) error {
	return h.wait(ctx, unix.POLLIN, &h.rdWake)
}

func (h *posixHandle) WaitWritable(ctx context.Context) error {
	return h.wait(ctx, unix.POLLOUT, &h.wrWake)
}

// wait polls the device together with the direction's wake pipe. A watcher
// goroutine tickles the pipe when ctx is cancelled or the handle is closed,
// which bounds how long the poll can sleep.
func (h *posixHandle) wait(ctx context.Context, events int16, wake *[2]int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-h.done:
			return os.ErrClosed
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
			unix.Write(wake[1], []byte{1})
		}()

		fds := []unix.PollFd{
			{Fd: int32(h.fd), Events: events},
			{Fd: int32(wake[0]), Events: unix.POLLIN},
		}
		_, err := unix.Poll(fds, -1)
		close(stop)
		drainWake(wake[0])

		if err != nil && err != unix.EINTR {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-h.done:
			return os.ErrClosed
		default:
		}
		if fds[0].Revents&(events|unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return nil
		}
		// Spurious wakeup, poll again.
	}
}

// drainWake empties a wake pipe so stale wakeups don't trip the next wait.
func drainWake(fd int) {
	var buf [8]byte
	for {
		if n, err := unix.Read(fd, buf[:]); n <= 0 || err != nil {
			return
		}
	}
}

func (h *posixHandle) Lines() (Signals, error) {
	status, err := unix.IoctlGetInt(h.fd, unix.TIOCMGET)
	if err != nil {
		return Signals{}, err
	}
	return Signals{
		CTS: status&unix.TIOCM_CTS != 0,
		DSR: status&unix.TIOCM_DSR != 0,
		RI:  status&unix.TIOCM_RI != 0,
		DCD: status&unix.TIOCM_CAR != 0,
		RTS: status&unix.TIOCM_RTS != 0,
		DTR: status&unix.TIOCM_DTR != 0,
	}, nil
}

func (h *posixHandle) SetLine(line Line, state bool) error {
	var bit int
	switch line {
	case LineRTS:
		bit = unix.TIOCM_RTS
	case LineDTR:
		bit = unix.TIOCM_DTR
	default:
		return fmt.Errorf("line %s is read-only", line)
	}
	cmd := uint(unix.TIOCMBIC)
	if state {
		cmd = unix.TIOCMBIS
	}
	return unix.IoctlSetPointerInt(h.fd, cmd, bit)
}

// SendBreak holds the line in break condition for the given duration. The
// timing is done on the host; the kernel only toggles the condition.
func (h *posixHandle) SendBreak(duration time.Duration) error {
	if err := unix.IoctlSetInt(h.fd, unix.TIOCSBRK, 0); err != nil {
		return err
	}
	time.Sleep(duration)
	return unix.IoctlSetInt(h.fd, unix.TIOCCBRK, 0)
}

func (h *posixHandle) DiscardInput() error {
	return discardFd(h.fd, true, false)
}

func (h *posixHandle) DiscardOutput() error {
	return discardFd(h.fd, false, true)
}

func (h *posixHandle) Drain() error {
	return drainFd(h.fd)
}

// Close releases the descriptor exactly once and wakes both directions so
// a goroutine suspended in wait() unblocks promptly.
func (h *posixHandle) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
		unix.Write(h.rdWake[1], []byte{1})
		unix.Write(h.wrWake[1], []byte{1})
		h.closeErr = unix.Close(h.fd)
		unix.Close(h.rdWake[0])
		unix.Close(h.rdWake[1])
		unix.Close(h.wrWake[0])
		unix.Close(h.wrWake[1])
	})
	return h.closeErr
}
