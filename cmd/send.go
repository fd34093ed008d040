/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <port>",
	Short: "Send data to a serial port",
	Long: `Send data to a serial port.

Data can be provided as:
- Command line argument: send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | serialstream send /dev/ttyUSB0

The whole buffer is written before the command returns; if the device
stalls (e.g. hardware flow control with CTS low), --timeout bounds how long
the write may stay suspended.

Example usage:
  serialstream send "Hello World" /dev/ttyUSB0
  serialstream send "AT+GMR" /dev/ttyUSB0 --newline
  serialstream send "48656c6c6f" /dev/ttyUSB0 --hex
  echo "test" | serialstream send /dev/ttyUSB0`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var data string
		var portPath string

		if len(args) == 1 {
			portPath = args[0]
			stdinData, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
				os.Exit(1)
			}
			data = strings.TrimRight(string(stdinData), "\r\n")
		} else {
			data = args[0]
			portPath = args[1]
		}

		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		drain, _ := cmd.Flags().GetBool("drain")

		payload := []byte(data)
		if hexMode {
			decoded, err := hex.DecodeString(strings.ReplaceAll(data, " ", ""))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error decoding hex input: %v\n", err)
				os.Exit(1)
			}
			payload = decoded
		}
		if addNewline {
			payload = append(payload, '\r', '\n')
		}

		stream, err := openStream(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer stream.Close()

		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		if err := stream.SendAll(ctx, payload); err != nil {
			fmt.Fprintf(os.Stderr, "Error sending data: %v\n", err)
			os.Exit(1)
		}
		if drain {
			if err := stream.Drain(); err != nil {
				fmt.Fprintf(os.Stderr, "Error draining output: %v\n", err)
				os.Exit(1)
			}
		}

		fmt.Println(successStyle.Render(fmt.Sprintf("Sent %d bytes to %s", len(payload), portPath)))
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().Bool("newline", false, "append CRLF to the data")
	sendCmd.Flags().Bool("hex", false, "interpret data as hex bytes")
	sendCmd.Flags().Bool("drain", false, "wait until the device has transmitted everything")
	sendCmd.Flags().Duration("timeout", 10*time.Second, "maximum time to spend sending (0 = no limit)")
}
