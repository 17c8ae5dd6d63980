package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaypoint/retry"
	"github.com/relaypoint/retry/internal/rcli"
)

func newBreakerCmd() *cobra.Command {
	var openMs, resetMs int64
	var calls int

	cmd := &cobra.Command{
		Use:   "breaker",
		Short: "Demonstrate a circuit breaker tripping and resetting across calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			delegate := retry.NewMaxAttemptsPolicy(1)
			breaker := retry.NewCircuitBreakerRetryPolicy(
				delegate,
				time.Duration(openMs)*time.Millisecond,
				time.Duration(resetMs)*time.Millisecond,
			)
			tmpl := retry.NewTemplate(breaker, retry.NoBackOffPolicy{})

			for i := 1; i <= calls; i++ {
				err := tmpl.Execute(cmd.Context(), func(ctx context.Context, rc *retry.RetryContext) error {
					return errSimulated
				})
				if err != nil {
					rcli.Failure("call %d: %v", i, err)
				} else {
					rcli.Success("call %d: succeeded", i)
				}
				time.Sleep(time.Duration(openMs/2) * time.Millisecond)
			}
			fmt.Println("breaker demo complete")
			return nil
		},
	}

	cmd.Flags().Int64Var(&openMs, "open-ms", 50, "circuit open window in milliseconds")
	cmd.Flags().Int64Var(&resetMs, "reset-ms", 500, "circuit reset window in milliseconds")
	cmd.Flags().IntVar(&calls, "calls", 10, "number of calls to make")
	return cmd
}
