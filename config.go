package serialstream

import "fmt"

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	case ParityMark:
		return "mark"
	case ParitySpace:
		return "space"
	default:
		return "unknown"
	}
}

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlRTSCTS
	FlowControlXONXOFF
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "none"
	case FlowControlRTSCTS:
		return "rts_cts"
	case FlowControlXONXOFF:
		return "xon_xoff"
	default:
		return "unknown"
	}
}

// Config holds the configuration for a serial stream
type Config struct {
	BaudRate      int
	DataBits      int
	StopBits      int
	Parity        Parity
	FlowControl   FlowControl
	HangupOnClose bool
	Exclusive     bool
}

// String renders the configuration in the conventional short form,
// e.g. "115200 8N1".
func (c Config) String() string {
	parity := "N"
	switch c.Parity {
	case ParityOdd:
		parity = "O"
	case ParityEven:
		parity = "E"
	case ParityMark:
		parity = "M"
	case ParitySpace:
		parity = "S"
	}
	return fmt.Sprintf("%d %d%s%d", c.BaudRate, c.DataBits, parity, c.StopBits)
}

// Option is a functional option for configuring a serial stream
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:      115200,
		DataBits:      8,
		StopBits:      1,
		Parity:        ParityNone,
		FlowControl:   FlowControlNone,
		HangupOnClose: true,
		Exclusive:     false,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return ErrInvalidBaudRate
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParitySpace {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		if fc < FlowControlNone || fc > FlowControlXONXOFF {
			return ErrInvalidConfig
		}
		c.FlowControl = fc
		return nil
	}
}

// WithHangupOnClose controls whether Close deasserts DTR and RTS before
// releasing the device, signaling line disconnection to the remote endpoint.
// Enabled by default; can also be changed after open with SetHangup.
func WithHangupOnClose(hangup bool) Option {
	return func(c *Config) error {
		c.HangupOnClose = hangup
		return nil
	}
}

// WithExclusive locks the port for exclusive use so that a second open of
// the same device fails instead of silently sharing the line.
func WithExclusive() Option {
	return func(c *Config) error {
		c.Exclusive = true
		return nil
	}
}

// ParseParity converts a parity name ("none", "even", "odd", "mark",
// "space") to its Parity value.
func ParseParity(s string) (Parity, error) {
	switch s {
	case "none", "":
		return ParityNone, nil
	case "odd":
		return ParityOdd, nil
	case "even":
		return ParityEven, nil
	case "mark":
		return ParityMark, nil
	case "space":
		return ParitySpace, nil
	default:
		return ParityNone, ErrInvalidConfig
	}
}

// ParseFlowControl converts a flow control name ("none", "rts_cts",
// "xon_xoff") to its FlowControl value.
func ParseFlowControl(s string) (FlowControl, error) {
	switch s {
	case "none", "":
		return FlowControlNone, nil
	case "rts_cts", "rtscts":
		return FlowControlRTSCTS, nil
	case "xon_xoff", "xonxoff":
		return FlowControlXONXOFF, nil
	default:
		return FlowControlNone, ErrInvalidConfig
	}
}
