package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/kiloframe/beam/internal/version"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "beam",
	Short:   "Peer-to-peer file transfer over WebRTC",
	Long:    `Beam sends files directly between two peers over a WebRTC data channel, using a small signaling server only to exchange the initial offer and answer.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		for s := range sig {
			fmt.Println(s.String())
			os.Exit(0)
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

