// Command retryctl runs small, observable demonstrations of the retry
// engine's policies: a bounded retry against a flaky operation, a
// circuit breaker tripping and resetting, and a stateful transfer resumed
// across separate invocations, plus a config subcommand that shows or
// writes the TOML policy configuration. It has no pooled-network
// subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaypoint/retry/internal/rcli"
	"github.com/relaypoint/retry/internal/rlog"
)

var (
	version = "dev"

	configPath string
	verbose    bool
	noColor    bool
)

func main() {
	log := rlog.NewLogger("info", "text")
	rlog.SetGlobalLogger(log)

	rootCmd := &cobra.Command{
		Use:     "retryctl",
		Short:   "Run observable demonstrations of the retry engine",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				rlog.SetGlobalLogger(rlog.NewLogger("debug", "text"))
			}
			if noColor {
				rcli.SetColorMode(rcli.ColorNever)
			} else {
				rcli.SetColorMode(rcli.ColorAuto)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a retry policy TOML file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		newFixedCmd(),
		newBreakerCmd(),
		newTransferCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
