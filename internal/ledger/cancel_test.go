package ledger_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferFixture(t *testing.T, amount int64) (*fixture, *models.Transaction) {
	t.Helper()
	f := newFixture(t)
	f.user("usr-1", "Alice")
	f.user("usr-2", "Bob")
	f.account("usr-1", "1000000000", 10_000)
	f.account("usr-2", "1000000001", 0)

	txn, err := f.ledger.Transfer(ctx, caller("usr-1"), ledger.TransferRequest{
		SenderAccountNumber:   "1000000000",
		ReceiverAccountNumber: "1000000001",
		Amount:                amount,
	})
	require.NoError(t, err)
	return f, txn
}

func cancelOf(txn *models.Transaction, amount int64) ledger.CancelRequest {
	return ledger.CancelRequest{
		TransactionID:         txn.TransactionID,
		SenderAccountNumber:   txn.AccountNumber,
		ReceiverAccountNumber: txn.CounterpartyAccountNumber,
		Amount:                amount,
	}
}

func TestCancel_PartialThenTwice(t *testing.T) {
	f, txn := transferFixture(t, 5_000)

	_, err := f.ledger.Cancel(ctx, caller("usr-1"), cancelOf(txn, 4_000))
	assert.ErrorIs(t, err, ledger.ErrPartialCancelNotAllowed)
	assert.Equal(t, int64(5_000), f.balance(t, "1000000000"))

	cancel, err := f.ledger.Cancel(ctx, caller("usr-1"), cancelOf(txn, 5_000))
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCancel, cancel.Type)
	assert.Equal(t, models.ResultSuccess, cancel.Result)
	assert.Equal(t, int64(10_000), cancel.BalanceSnapshot)
	assert.Equal(t, "1000000001", cancel.CounterpartyAccountNumber)
	assert.Equal(t, int64(10_000), f.balance(t, "1000000000"))
	assert.Equal(t, int64(0), f.balance(t, "1000000001"))
	assert.Equal(t, models.ResultExpiredAfterSuccess, f.store.Transaction(txn.TransactionID).Result)

	_, err = f.ledger.Cancel(ctx, caller("usr-1"), cancelOf(txn, 5_000))
	assert.ErrorIs(t, err, ledger.ErrAlreadyCancelled)
	assert.Equal(t, int64(10_000), f.balance(t, "1000000000"))
}

func TestCancel_WindowBoundary(t *testing.T) {
	f, txn := transferFixture(t, 100)

	f.now = txn.TransactedAt.Add(ledger.CancellationWindow + time.Second)
	_, err := f.ledger.Cancel(ctx, caller("usr-1"), cancelOf(txn, 100))
	assert.ErrorIs(t, err, ledger.ErrCancellationWindowExpired)

	f.now = txn.TransactedAt.Add(ledger.CancellationWindow)
	_, err = f.ledger.Cancel(ctx, caller("usr-1"), cancelOf(txn, 100))
	assert.NoError(t, err)
}

func TestCancel_Failures(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		req     func(txn *models.Transaction) ledger.CancelRequest
		wantErr error
	}{
		{
			name:    "user not found",
			caller:  "usr-x",
			req:     func(txn *models.Transaction) ledger.CancelRequest { return cancelOf(txn, txn.Amount) },
			wantErr: ledger.ErrUserNotFound,
		},
		{
			name:   "transaction not found",
			caller: "usr-1",
			req: func(txn *models.Transaction) ledger.CancelRequest {
				r := cancelOf(txn, txn.Amount)
				r.TransactionID = "00000000000000000000000000000000"
				return r
			},
			wantErr: ledger.ErrTransactionNotFound,
		},
		{
			name:   "account not found",
			caller: "usr-1",
			req: func(txn *models.Transaction) ledger.CancelRequest {
				r := cancelOf(txn, txn.Amount)
				r.ReceiverAccountNumber = "1000000099"
				return r
			},
			wantErr: ledger.ErrAccountNotFound,
		},
		{
			name:    "not the sender's owner",
			caller:  "usr-2",
			req:     func(txn *models.Transaction) ledger.CancelRequest { return cancelOf(txn, txn.Amount) },
			wantErr: ledger.ErrOwnershipMismatch,
		},
		{
			name:   "wrong counterparty",
			caller: "usr-1",
			req: func(txn *models.Transaction) ledger.CancelRequest {
				r := cancelOf(txn, txn.Amount)
				r.ReceiverAccountNumber = "1000000002"
				return r
			},
			wantErr: ledger.ErrTransactionAccountMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, txn := transferFixture(t, 700)
			f.account("usr-1", "1000000002", 0)

			_, err := f.ledger.Cancel(ctx, caller(tt.caller), tt.req(txn))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int64(9_300), f.balance(t, "1000000000"))
			assert.Equal(t, int64(700), f.balance(t, "1000000001"))
		})
	}
}

func TestCancel_OnlyTransfersAreCancellable(t *testing.T) {
	f := newFixture(t)
	f.user("usr-1", "Alice")
	f.user("usr-2", "Bob")
	f.account("usr-1", "1000000000", 1_000)
	f.account("usr-2", "1000000001", 0)

	deposit, err := f.ledger.Deposit(ctx, caller("usr-1"), "1000000000", 100)
	require.NoError(t, err)
	_, err = f.ledger.Cancel(ctx, caller("usr-1"), cancelOf(deposit, 100))
	assert.ErrorIs(t, err, ledger.ErrNotCancellable)

	failed, err := f.ledger.RecordFailure(ctx, caller("usr-1"), ledger.FailureRequest{
		AccountNumber: "1000000000", ReceiverAccountNumber: "1000000001", Amount: 50,
	})
	require.NoError(t, err)
	_, err = f.ledger.Cancel(ctx, caller("usr-1"), cancelOf(failed, 50))
	assert.ErrorIs(t, err, ledger.ErrNotCancellable)

	txn, err := f.ledger.Transfer(ctx, caller("usr-1"), ledger.TransferRequest{
		SenderAccountNumber: "1000000000", ReceiverAccountNumber: "1000000001", Amount: 10,
	})
	require.NoError(t, err)
	cancel, err := f.ledger.Cancel(ctx, caller("usr-1"), cancelOf(txn, 10))
	require.NoError(t, err)
	_, err = f.ledger.Cancel(ctx, caller("usr-1"), cancelOf(cancel, 10))
	assert.ErrorIs(t, err, ledger.ErrNotCancellable)
}

func TestCancel_ReceiverSpentTheMoney(t *testing.T) {
	f, txn := transferFixture(t, 1_000)
	f.account("usr-2", "1000000005", 0)
	_, err := f.ledger.Transfer(ctx, caller("usr-2"), ledger.TransferRequest{
		SenderAccountNumber: "1000000001", ReceiverAccountNumber: "1000000005", Amount: 600,
	})
	require.NoError(t, err)

	_, err = f.ledger.Cancel(ctx, caller("usr-1"), cancelOf(txn, 1_000))
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	assert.Equal(t, models.ResultSuccess, f.store.Transaction(txn.TransactionID).Result)
	assert.Equal(t, int64(9_000), f.balance(t, "1000000000"))
}

func TestCancel_ConcurrentAttemptsSucceedOnce(t *testing.T) {
	f, txn := transferFixture(t, 2_500)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.ledger.Cancel(ctx, caller("usr-1"), cancelOf(txn, 2_500)); err == nil {
				successes.Add(1)
			} else {
				assert.ErrorIs(t, err, ledger.ErrAlreadyCancelled)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int64(10_000), f.balance(t, "1000000000"))
	assert.Equal(t, int64(0), f.balance(t, "1000000001"))
}
