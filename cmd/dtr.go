/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// dtrCmd represents the dtr command
var dtrCmd = &cobra.Command{
	Use:   "dtr <port> <state>",
	Short: "Control DTR (Data Terminal Ready) signal",
	Long: `Manually set the DTR (Data Terminal Ready) signal state.

Many devices use DTR for reset pulses or to detect a connected terminal.
Opening the port does not move the line; only this command does.

Examples:
  serialstream dtr /dev/ttyUSB0 high
  serialstream dtr /dev/ttyUSB0 low

Valid states: high, low, on, off, true, false, 1, 0`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		stateArg := args[1]

		state, err := parseSignalState(stateArg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		stream, err := openStream(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer stream.Close()

		if err := stream.SetHangup(false); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		err = stream.SetDTR(state)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error setting DTR: %v\n", err)
			os.Exit(1)
		}

		currentState, err := stream.GetDTR()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not verify DTR state: %v\n", err)
		}

		fmt.Printf("DTR set to %s on %s\n", formatSignalState(currentState), portPath)
	},
}

func init() {
	rootCmd.AddCommand(dtrCmd)
}
