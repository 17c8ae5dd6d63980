package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaypoint/retry"
	"github.com/relaypoint/retry/internal/rcli"
	"github.com/relaypoint/retry/internal/rconfig"
)

func newFixedCmd() *cobra.Command {
	var failUntil int

	cmd := &cobra.Command{
		Use:   "fixed",
		Short: "Retry a flaky operation under a bounded exponential back-off",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rconfig.DefaultPolicyConfig()
			if configPath != "" {
				loaded, err := rconfig.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			tmpl := cfg.Template()
			bar := rcli.NewAttemptBar(cfg.MaxAttempts, "fixed-retry")

			attempt := 0
			err := tmpl.Execute(cmd.Context(), func(ctx context.Context, rc *retry.RetryContext) error {
				attempt++
				bar.Attempt()
				if attempt < failUntil {
					return fmt.Errorf("attempt %d: simulated transient failure", attempt)
				}
				return nil
			})
			bar.Finish()

			if err != nil {
				rcli.Failure("gave up after %d attempts: %v", attempt, err)
				return nil
			}
			rcli.Success("succeeded after %d attempts", attempt)
			return nil
		},
	}

	cmd.Flags().IntVar(&failUntil, "fail-until", 2, "fail every attempt before this one")
	return cmd
}

// demoContextTimeout is a 30-second demo time bound. No subcommand reads
// it; none of them sets a deadline on its context.
var demoContextTimeout = 30 * time.Second

var errSimulated = errors.New("simulated failure")
