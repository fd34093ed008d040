/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	serialstream "github.com/allbin/go-serialstream"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialstream",
	Short: "Serial port stream utility",
	Long: `serialstream is a command line utility for working with serial ports
through the go-serialstream library.

It can send and receive raw bytes, inspect and drive modem control signals
(RTS, DTR, CTS, DSR, DCD, RI), transmit break conditions, discard driver
buffers, and run a live TUI monitor.

Port parameters (baud rate, parity, data/stop bits, flow control) are shared
persistent flags, so they work the same on every subcommand:

  serialstream send "AT" /dev/ttyUSB0 --baud 9600 --parity even
  serialstream listen /dev/ttyUSB0 --flow rts_cts
  serialstream monitor /dev/ttyUSB0`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serialstream.yaml)")
	rootCmd.PersistentFlags().Int("baud", 115200, "baud rate")
	rootCmd.PersistentFlags().Int("databits", 8, "data bits (5-8)")
	rootCmd.PersistentFlags().Int("stopbits", 1, "stop bits (1 or 2)")
	rootCmd.PersistentFlags().String("parity", "none", "parity: none, even, odd, mark, space")
	rootCmd.PersistentFlags().String("flow", "none", "flow control: none, rts_cts, xon_xoff")
	rootCmd.PersistentFlags().Bool("no-hangup", false, "keep DTR/RTS asserted when closing the port")
	rootCmd.PersistentFlags().Bool("exclusive", false, "lock the port for exclusive use")

	viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))
	viper.BindPFlag("databits", rootCmd.PersistentFlags().Lookup("databits"))
	viper.BindPFlag("stopbits", rootCmd.PersistentFlags().Lookup("stopbits"))
	viper.BindPFlag("parity", rootCmd.PersistentFlags().Lookup("parity"))
	viper.BindPFlag("flow", rootCmd.PersistentFlags().Lookup("flow"))
	viper.BindPFlag("no-hangup", rootCmd.PersistentFlags().Lookup("no-hangup"))
	viper.BindPFlag("exclusive", rootCmd.PersistentFlags().Lookup("exclusive"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".serialstream")
	}

	viper.SetEnvPrefix("SERIALSTREAM")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// streamOptions translates the shared flags into library options.
func streamOptions() ([]serialstream.Option, error) {
	parity, err := serialstream.ParseParity(viper.GetString("parity"))
	if err != nil {
		return nil, fmt.Errorf("invalid parity %q", viper.GetString("parity"))
	}
	flow, err := serialstream.ParseFlowControl(viper.GetString("flow"))
	if err != nil {
		return nil, fmt.Errorf("invalid flow control %q", viper.GetString("flow"))
	}

	opts := []serialstream.Option{
		serialstream.WithBaudRate(viper.GetInt("baud")),
		serialstream.WithDataBits(viper.GetInt("databits")),
		serialstream.WithStopBits(viper.GetInt("stopbits")),
		serialstream.WithParity(parity),
		serialstream.WithFlowControl(flow),
		serialstream.WithHangupOnClose(!viper.GetBool("no-hangup")),
	}
	if viper.GetBool("exclusive") {
		opts = append(opts, serialstream.WithExclusive())
	}
	return opts, nil
}

// openStream opens a port with the shared flags applied.
func openStream(portPath string) (*serialstream.Stream, error) {
	opts, err := streamOptions()
	if err != nil {
		return nil, err
	}
	return serialstream.Open(portPath, opts...)
}
