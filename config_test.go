package serialstream

import "testing"

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 115200 {
		t.Errorf("Expected BaudRate 115200, got %d", config.BaudRate)
	}

	if config.DataBits != 8 {
		t.Errorf("Expected DataBits 8, got %d", config.DataBits)
	}

	if config.StopBits != 1 {
		t.Errorf("Expected StopBits 1, got %d", config.StopBits)
	}

	if config.Parity != ParityNone {
		t.Errorf("Expected Parity None, got %v", config.Parity)
	}

	if config.FlowControl != FlowControlNone {
		t.Errorf("Expected FlowControl None, got %v", config.FlowControl)
	}

	if !config.HangupOnClose {
		t.Error("Expected HangupOnClose to default to true")
	}

	if config.Exclusive {
		t.Error("Expected Exclusive to default to false")
	}
}

func TestFunctionalOptions(t *testing.T) {
	config := DefaultConfig()

	err := WithBaudRate(9600)(&config)
	if err != nil {
		t.Errorf("WithBaudRate failed: %v", err)
	}
	if config.BaudRate != 9600 {
		t.Errorf("Expected BaudRate 9600, got %d", config.BaudRate)
	}

	err = WithDataBits(7)(&config)
	if err != nil {
		t.Errorf("WithDataBits failed: %v", err)
	}
	if config.DataBits != 7 {
		t.Errorf("Expected DataBits 7, got %d", config.DataBits)
	}

	err = WithStopBits(2)(&config)
	if err != nil {
		t.Errorf("WithStopBits failed: %v", err)
	}
	if config.StopBits != 2 {
		t.Errorf("Expected StopBits 2, got %d", config.StopBits)
	}

	err = WithParity(ParityEven)(&config)
	if err != nil {
		t.Errorf("WithParity failed: %v", err)
	}
	if config.Parity != ParityEven {
		t.Errorf("Expected Parity Even, got %v", config.Parity)
	}

	err = WithFlowControl(FlowControlRTSCTS)(&config)
	if err != nil {
		t.Errorf("WithFlowControl failed: %v", err)
	}
	if config.FlowControl != FlowControlRTSCTS {
		t.Errorf("Expected FlowControl RTSCTS, got %v", config.FlowControl)
	}

	err = WithHangupOnClose(false)(&config)
	if err != nil {
		t.Errorf("WithHangupOnClose failed: %v", err)
	}
	if config.HangupOnClose {
		t.Error("Expected HangupOnClose false")
	}

	err = WithExclusive()(&config)
	if err != nil {
		t.Errorf("WithExclusive failed: %v", err)
	}
	if !config.Exclusive {
		t.Error("Expected Exclusive true")
	}
}

func TestInvalidDataBits(t *testing.T) {
	config := DefaultConfig()
	err := WithDataBits(9)(&config)
	if err == nil {
		t.Error("Expected error for invalid data bits")
	}
	if err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestInvalidStopBits(t *testing.T) {
	config := DefaultConfig()
	err := WithStopBits(3)(&config)
	if err == nil {
		t.Error("Expected error for invalid stop bits")
	}
	if err != ErrInvalidConfig {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestInvalidBaudRate(t *testing.T) {
	config := DefaultConfig()
	err := WithBaudRate(-9600)(&config)
	if err == nil {
		t.Error("Expected error for negative baud rate")
	}
	if err != ErrInvalidBaudRate {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}
}

func TestParseParity(t *testing.T) {
	tests := []struct {
		input    string
		expected Parity
		hasError bool
	}{
		{"none", ParityNone, false},
		{"", ParityNone, false},
		{"even", ParityEven, false},
		{"odd", ParityOdd, false},
		{"mark", ParityMark, false},
		{"space", ParitySpace, false},
		{"bogus", ParityNone, true},
	}

	for _, test := range tests {
		result, err := ParseParity(test.input)
		if test.hasError {
			if err == nil {
				t.Errorf("Expected error for parity %q", test.input)
			}
		} else {
			if err != nil {
				t.Errorf("Unexpected error for parity %q: %v", test.input, err)
			}
			if result != test.expected {
				t.Errorf("ParseParity(%q) = %v, want %v", test.input, result, test.expected)
			}
		}
	}
}

func TestParseFlowControl(t *testing.T) {
	tests := []struct {
		input    string
		expected FlowControl
		hasError bool
	}{
		{"none", FlowControlNone, false},
		{"", FlowControlNone, false},
		{"rts_cts", FlowControlRTSCTS, false},
		{"rtscts", FlowControlRTSCTS, false},
		{"xon_xoff", FlowControlXONXOFF, false},
		{"xonxoff", FlowControlXONXOFF, false},
		{"hardware", FlowControlNone, true},
	}

	for _, test := range tests {
		result, err := ParseFlowControl(test.input)
		if test.hasError {
			if err == nil {
				t.Errorf("Expected error for flow control %q", test.input)
			}
		} else {
			if err != nil {
				t.Errorf("Unexpected error for flow control %q: %v", test.input, err)
			}
			if result != test.expected {
				t.Errorf("ParseFlowControl(%q) = %v, want %v", test.input, result, test.expected)
			}
		}
	}
}
