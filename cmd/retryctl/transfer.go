package main

import (
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/relaypoint/retry/internal/rcli"
	"github.com/relaypoint/retry/internal/rconfig"
	"github.com/relaypoint/retry/internal/rstore"
)

func newTransferCmd() *cobra.Command {
	var dbPath, from, to, transferID string
	var amountCents int64

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Run a stateful, resumable ledger transfer against SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rconfig.DefaultPolicyConfig()
			if configPath != "" {
				loaded, err := rconfig.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			ledger, err := rstore.Open(dbPath, cfg.Template())
			if err != nil {
				return err
			}
			defer ledger.Close()

			if err := rstore.WithTransaction(cmd.Context(), ledger.DB, func(tx *sqlx.Tx) error {
				return ledger.Deposit(cmd.Context(), tx, from, amountCents*2)
			}); err != nil {
				return err
			}

			if err := ledger.Transfer(cmd.Context(), transferID, from, to, amountCents); err != nil {
				rcli.Failure("transfer %s failed: %v", transferID, err)
				return nil
			}
			rcli.Success("transfer %s complete: %d cents %s -> %s", transferID, amountCents, from, to)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "retryctl-ledger.db", "path to the SQLite ledger database")
	cmd.Flags().StringVar(&from, "from", "alice", "source account")
	cmd.Flags().StringVar(&to, "to", "bob", "destination account")
	cmd.Flags().StringVar(&transferID, "id", "demo-transfer-1", "stateful retry key for this transfer")
	cmd.Flags().Int64Var(&amountCents, "amount-cents", 500, "amount to transfer, in cents")
	return cmd
}
