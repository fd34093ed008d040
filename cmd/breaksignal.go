/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// breakCmd represents the break command
var breakCmd = &cobra.Command{
	Use:   "break <port>",
	Short: "Send a break condition on the line",
	Long: `Hold the transmit line in break condition (sustained logic low) for a
configurable duration. A break is a line-level event distinct from any data
byte; some bootloaders and instruments use it as an attention or reset
signal.

Examples:
  serialstream break /dev/ttyUSB0
  serialstream break /dev/ttyUSB0 --duration 500ms`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		duration, _ := cmd.Flags().GetDuration("duration")

		stream, err := openStream(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer stream.Close()

		if err := stream.SendBreak(duration); err != nil {
			fmt.Fprintf(os.Stderr, "Error sending break: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Sent %v break on %s\n", duration, portPath)
	},
}

func init() {
	rootCmd.AddCommand(breakCmd)

	breakCmd.Flags().Duration("duration", 250*time.Millisecond, "break duration")
}
