//go:build darwin

package serialstream

import "golang.org/x/sys/unix"

// baudRates holds the rates Darwin accepts without IOSSIOSPEED. The
// speed_t values on Darwin are the literal rates.
var baudRates = map[int]uint64{
	50:     unix.B50,
	75:     unix.B75,
	110:    unix.B110,
	134:    unix.B134,
	150:    unix.B150,
	200:    unix.B200,
	300:    unix.B300,
	600:    unix.B600,
	1200:   unix.B1200,
	1800:   unix.B1800,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

func configureTermios(fd int, config Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TIOCGETA)
	if err != nil {
		return err
	}

	baud, ok := baudRates[config.BaudRate]
	if !ok {
		return ErrInvalidBaudRate
	}

	termios.Cflag = unix.CREAD | unix.CLOCAL
	termios.Iflag = 0
	termios.Oflag = 0
	termios.Lflag = 0
	termios.Ispeed = baud
	termios.Ospeed = baud

	switch config.DataBits {
	case 5:
		termios.Cflag |= unix.CS5
	case 6:
		termios.Cflag |= unix.CS6
	case 7:
		termios.Cflag |= unix.CS7
	default:
		termios.Cflag |= unix.CS8
	}

	if config.StopBits == 2 {
		termios.Cflag |= unix.CSTOPB
	}

	switch config.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		termios.Cflag |= unix.PARENB
	case ParityMark, ParitySpace:
		// Darwin termios has no stick parity.
		return ErrConfigRejected
	}

	switch config.FlowControl {
	case FlowControlRTSCTS:
		termios.Cflag |= unix.CRTSCTS
	case FlowControlXONXOFF:
		termios.Iflag |= unix.IXON | unix.IXOFF
	}

	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(fd, unix.TIOCSETA, termios)
}

func drainFd(fd int) error {
	return unix.IoctlSetInt(fd, unix.TIOCDRAIN, 0)
}

// tcflush on Darwin is TIOCFLUSH with an FREAD/FWRITE bitmask.
const (
	flushRead  = 0x1
	flushWrite = 0x2
)

func discardFd(fd int, input, output bool) error {
	var arg int
	if input {
		arg |= flushRead
	}
	if output {
		arg |= flushWrite
	}
	if arg == 0 {
		return nil
	}
	return unix.IoctlSetPointerInt(fd, unix.TIOCFLUSH, arg)
}
