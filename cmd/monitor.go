/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/allbin/go-serialstream/internal/tui"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor <port>",
	Short: "Interactive TUI monitor for a serial port",
	Long: `Open a serial port and run a full-screen monitor showing incoming
data as a hex dump alongside the live modem signal states.

Keys:
  r  toggle RTS          i  flush input buffer
  d  toggle DTR          o  flush output buffer
  b  send break          q  quit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stream, err := openStream(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer stream.Close()

		p := tea.NewProgram(tui.New(stream), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("monitor failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
