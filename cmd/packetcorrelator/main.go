// Command packetcorrelator synthesizes Ethernet/IPv4/IPv6 frames carrying
// TCP/UDP/ICMP from a JSON template, injects them on one interface,
// captures on another, and correlates replies by their embedded sequence
// tag.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var debug bool

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packetcorrelator",
		Short: "Synthesize, inject, and correlate Ethernet/IP/TCP/UDP/ICMP packets",
	}
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug-level logging")
	cmd.AddCommand(runCommand())
	return cmd
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.err)
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
