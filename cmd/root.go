package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/algovanity/algovanity/internal/config"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var rootVerbose bool

var rootCmd = &cobra.Command{
	Use:     "algovanity",
	Short:   "Vanity address search for Algorand",
	Long:    "Algovanity brute-forces Algorand accounts whose address starts with the prefixes you want, and tunes the batch size that maximizes search throughput.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(); err != nil {
			return err
		}
		setupLogging()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging() {
	logrus.SetOutput(os.Stderr)

	level := logrus.WarnLevel
	if value, ok := config.Get("logging.level"); ok {
		if parsed, err := logrus.ParseLevel(value); err == nil {
			level = parsed
		}
	}
	if rootVerbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
}
