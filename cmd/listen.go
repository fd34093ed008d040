/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen <port>",
	Short: "Receive data from a serial port",
	Long: `Continuously receive data from a serial port and print it.

By default received bytes are written to stdout as-is. With --hex each chunk
is printed as a hex dump line, and with --json each chunk becomes a
structured JSON log record with a timestamp, which is convenient for piping
into log tooling.

The command stops on Ctrl-C or when the device reports end-of-stream.

Examples:
  serialstream listen /dev/ttyUSB0
  serialstream listen /dev/ttyUSB0 --baud 9600 --hex
  serialstream listen /dev/ttyUSB0 --json | jq .data`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		hexMode, _ := cmd.Flags().GetBool("hex")
		jsonMode, _ := cmd.Flags().GetBool("json")

		stream, err := openStream(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer stream.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := zerolog.New(os.Stdout).With().Timestamp().Str("port", portPath).Logger()

		fmt.Fprintf(os.Stderr, "Listening on %s (Ctrl-C to stop)\n", portPath)
		for {
			chunk, err := stream.ReceiveSome(ctx, 4096)
			if err != nil {
				switch {
				case errors.Is(err, io.EOF):
					fmt.Fprintln(os.Stderr, "Device reported end-of-stream")
					return
				case errors.Is(err, context.Canceled):
					return
				default:
					fmt.Fprintf(os.Stderr, "Error receiving data: %v\n", err)
					os.Exit(1)
				}
			}

			switch {
			case jsonMode:
				logger.Info().
					Int("len", len(chunk)).
					Hex("data", chunk).
					Msg("rx")
			case hexMode:
				fmt.Println(hex.EncodeToString(chunk))
			default:
				os.Stdout.Write(chunk)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().Bool("hex", false, "print received chunks as hex")
	listenCmd.Flags().Bool("json", false, "emit structured JSON records per chunk")
}
