//go:build linux

package serialstream

import "golang.org/x/sys/unix"

// baudRates maps integer baud rates to the Linux termios constants.
var baudRates = map[int]uint32{
	50:      unix.B50,
	75:      unix.B75,
	110:     unix.B110,
	134:     unix.B134,
	150:     unix.B150,
	200:     unix.B200,
	300:     unix.B300,
	600:     unix.B600,
	1200:    unix.B1200,
	1800:    unix.B1800,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	500000:  unix.B500000,
	576000:  unix.B576000,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	1152000: unix.B1152000,
	1500000: unix.B1500000,
	2000000: unix.B2000000,
	2500000: unix.B2500000,
	3000000: unix.B3000000,
	3500000: unix.B3500000,
	4000000: unix.B4000000,
}

// configureTermios puts the device into raw 8-bit-clean mode with the
// requested line parameters. VMIN/VTIME are both zero: with O_NONBLOCK the
// descriptor reports would-block instead of ever sleeping in read(2).
func configureTermios(fd int, config Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	baud, ok := baudRates[config.BaudRate]
	if !ok {
		return ErrInvalidBaudRate
	}

	termios.Cflag = unix.CREAD | unix.CLOCAL | baud
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
	case ParityMark:
		termios.Cflag |= unix.PARENB | unix.CMSPAR | unix.PARODD
	case ParitySpace:
		termios.Cflag |= unix.PARENB | unix.CMSPAR
	}

	switch config.FlowControl {
	case FlowControlRTSCTS:
		termios.Cflag |= unix.CRTSCTS
	case FlowControlXONXOFF:
		termios.Iflag |= unix.IXON | unix.IXOFF
	}

	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(fd, unix.TCSETS, termios)
}

// drainFd waits until all buffered output has been transmitted.
func drainFd(fd int) error {
	return unix.IoctlSetInt(fd, unix.TCSBRK, 1)
}

func discardFd(fd int, input, output bool) error {
	var arg int
	switch {
	case input && output:
		arg = unix.TCIOFLUSH
	case input:
		arg = unix.TCIFLUSH
	case output:
		arg = unix.TCOFLUSH
	default:
		return nil
	}
	return unix.IoctlSetInt(fd, unix.TCFLSH, arg)
}
