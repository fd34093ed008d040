/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// flushCmd represents the flush command
var flushCmd = &cobra.Command{
	Use:   "flush <port>",
	Short: "Discard driver buffer contents",
	Long: `Discard data held in the OS serial buffers.

By default both directions are flushed: unread input is dropped and queued
but untransmitted output is abandoned. Use --input or --output to flush one
direction only. Flushing is irreversible.

Examples:
  serialstream flush /dev/ttyUSB0
  serialstream flush /dev/ttyUSB0 --input
  serialstream flush /dev/ttyUSB0 --output`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		inputOnly, _ := cmd.Flags().GetBool("input")
		outputOnly, _ := cmd.Flags().GetBool("output")

		stream, err := openStream(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer stream.Close()

		doInput := !outputOnly || inputOnly
		doOutput := !inputOnly || outputOnly

		if doInput {
			if err := stream.DiscardInput(); err != nil {
				fmt.Fprintf(os.Stderr, "Error discarding input: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Discarded input buffer on %s\n", portPath)
		}
		if doOutput {
			if err := stream.DiscardOutput(); err != nil {
				fmt.Fprintf(os.Stderr, "Error discarding output: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Discarded output buffer on %s\n", portPath)
		}
	},
}

func init() {
	rootCmd.AddCommand(flushCmd)

	flushCmd.Flags().Bool("input", false, "discard only the input buffer")
	flushCmd.Flags().Bool("output", false, "discard only the output buffer")
}
