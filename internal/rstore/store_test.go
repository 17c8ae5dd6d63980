package rstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaypoint/retry"
	"github.com/relaypoint/retry/internal/rstore"
)

func openTestLedger(t *testing.T) *rstore.Ledger {
	t.Helper()
	tmpl := retry.NewTemplate(retry.NewMaxAttemptsPolicy(3), retry.NoBackOffPolicy{})
	ledger, err := rstore.Open(":memory:", tmpl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })
	return ledger
}

func TestLedger_DepositAndWithdraw(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, rstore.WithTransaction(ctx, ledger.DB, func(tx *sqlx.Tx) error {
		return ledger.Deposit(ctx, tx, "alice", 1000)
	}))

	require.NoError(t, rstore.WithTransaction(ctx, ledger.DB, func(tx *sqlx.Tx) error {
		return ledger.Withdraw(ctx, tx, "alice", 400)
	}))

	var balance int64
	require.NoError(t, ledger.DB.Get(&balance, `SELECT amount_cents FROM balances WHERE account = ?`, "alice"))
	assert.Equal(t, int64(600), balance)
}

func TestLedger_WithdrawInsufficientFundsStopsRetry(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, rstore.WithTransaction(ctx, ledger.DB, func(tx *sqlx.Tx) error {
		return ledger.Deposit(ctx, tx, "bob", 100)
	}))

	err := rstore.WithTransaction(ctx, ledger.DB, func(tx *sqlx.Tx) error {
		return ledger.Withdraw(ctx, tx, "bob", 500)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, rstore.ErrInsufficientFunds)
}

func TestLedger_Transfer(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, rstore.WithTransaction(ctx, ledger.DB, func(tx *sqlx.Tx) error {
		return ledger.Deposit(ctx, tx, "alice", 1000)
	}))

	require.NoError(t, ledger.Transfer(ctx, "transfer-1", "alice", "carol", 250))

	var aliceBalance, carolBalance int64
	require.NoError(t, ledger.DB.Get(&aliceBalance, `SELECT amount_cents FROM balances WHERE account = ?`, "alice"))
	require.NoError(t, ledger.DB.Get(&carolBalance, `SELECT amount_cents FROM balances WHERE account = ?`, "carol"))
	assert.Equal(t, int64(750), aliceBalance)
	assert.Equal(t, int64(250), carolBalance)
}

func TestLedger_TransferResumesOnRetriedCall(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	require.NoError(t, rstore.WithTransaction(ctx, ledger.DB, func(tx *sqlx.Tx) error {
		return ledger.Deposit(ctx, tx, "dave", 500)
	}))

	// Simulate a crash between the withdrawal attempt and completion: the
	// first top-level call's attempt fails with a plain (non-Stop) error,
	// which the default "always roll back" classifier sends straight back
	// to the caller rather than retrying in-loop, leaving the cached
	// RetryContext at attempt count 1 for the next call to resume. The
	// second call, with the transient condition gone, succeeds — and the
	// transfer lands exactly once despite two top-level invocations.
	attempt := 0
	op := func(ctx context.Context, rc *retry.RetryContext) error {
		attempt++
		if rc.RetryCount() == 0 {
			return errors.New("simulated crash before commit")
		}
		return rstore.WithTransaction(ctx, ledger.DB, func(tx *sqlx.Tx) error {
			if err := ledger.Withdraw(ctx, tx, "dave", 100); err != nil {
				return err
			}
			return ledger.Deposit(ctx, tx, "erin", 100)
		})
	}

	err := ledger.TransferOp.Execute(ctx, op, nil, ledger.RollbackClassifier, false, "transfer-2")
	require.Error(t, err, "first attempt propagates raw, leaving the context cached")

	err = ledger.TransferOp.Execute(ctx, op, nil, ledger.RollbackClassifier, false, "transfer-2")
	require.NoError(t, err, "second call resumes the cached context and succeeds")

	assert.Equal(t, 2, attempt, "the transfer body ran exactly once per invocation")

	var daveBalance, erinBalance int64
	require.NoError(t, ledger.DB.Get(&daveBalance, `SELECT amount_cents FROM balances WHERE account = ?`, "dave"))
	require.NoError(t, ledger.DB.Get(&erinBalance, `SELECT amount_cents FROM balances WHERE account = ?`, "erin"))
	assert.Equal(t, int64(400), daveBalance)
	assert.Equal(t, int64(100), erinBalance, "the amount was applied exactly once")
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	err := rstore.WithTransaction(ctx, ledger.DB, func(tx *sqlx.Tx) error {
		if err := ledger.Deposit(ctx, tx, "frank", 100); err != nil {
			return err
		}
		return assertErr
	})
	require.Error(t, err)

	var count int
	require.NoError(t, ledger.DB.Get(&count, `SELECT COUNT(*) FROM balances WHERE account = ?`, "frank"))
	assert.Equal(t, 0, count, "failed transaction must not leave a partial row")
}

var assertErr = context.Canceled
