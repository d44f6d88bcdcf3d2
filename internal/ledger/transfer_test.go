package ledger_test

import (
	"testing"
	"time"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/internal/repository/memory"
	"github.com/accountz/ledger-service/shared/models"
	"github.com/accountz/ledger-service/shared/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validIdentity(u *models.User) *ledger.Identity {
	return &ledger.Identity{
		Name:      u.Name,
		BirthDate: u.BirthDate,
		Email:     u.Email,
		Password:  u.PasswordHash,
	}
}

func TestTransfer_SimpleTier(t *testing.T) {
	f := newFixture(t)
	f.user("usr-1", "Alice")
	f.user("usr-2", "Bob")
	f.account("usr-1", "1000000000", 1_500_000)
	f.account("usr-2", "1000000001", 0)

	txn, err := f.ledger.Transfer(ctx, caller("usr-1"), ledger.TransferRequest{
		SenderAccountNumber:   "1000000000",
		ReceiverAccountNumber: "1000000001",
		Amount:                999_999,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500_001), f.balance(t, "1000000000"))
	assert.Equal(t, int64(999_999), f.balance(t, "1000000001"))
	assert.Equal(t, "1000000000", txn.AccountNumber)
	assert.Equal(t, "1000000001", txn.CounterpartyAccountNumber)
	assert.Equal(t, "Bob", txn.CounterpartyName)
	assert.Equal(t, int64(500_001), txn.BalanceSnapshot)
	assert.Equal(t, "usr-1", txn.UserID)
}

func TestTransfer_VerifiedTierWithBcrypt(t *testing.T) {
	store := memory.NewStore()
	hash, err := utils.HashPassword("correct horse")
	require.NoError(t, err)
	alice := &models.User{ID: "usr-1", Name: "Alice", Email: "alice@example.com", BirthDate: birthDate, PasswordHash: hash}
	store.SeedUser(alice)
	store.SeedUser(&models.User{ID: "usr-2", Name: "Bob", Email: "bob@example.com"})
	store.SeedAccount(&models.Account{UserID: "usr-1", AccountNumber: "1000000000", Balance: 2_000_000, Status: models.AccountActive})
	store.SeedAccount(&models.Account{UserID: "usr-2", AccountNumber: "1000000001", Status: models.AccountActive})
	l := ledger.New(store, ledger.Config{})

	req := ledger.TransferRequest{
		SenderAccountNumber:   "1000000000",
		ReceiverAccountNumber: "1000000001",
		Amount:                1_000_000,
		Identity: &ledger.Identity{
			Name:      "Alice",
			BirthDate: birthDate.Add(15 * time.Hour),
			Email:     "alice@example.com",
			Password:  "wrong",
		},
	}
	_, err = l.Transfer(ctx, caller("usr-1"), req)
	assert.ErrorIs(t, err, ledger.ErrPasswordMismatch)
	assert.Equal(t, int64(2_000_000), store.Account("1000000000").Balance)
	assert.Equal(t, int64(0), store.Account("1000000001").Balance)

	req.Identity.Password = "correct horse"
	_, err = l.Transfer(ctx, caller("usr-1"), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), store.Account("1000000000").Balance)
	assert.Equal(t, int64(1_000_000), store.Account("1000000001").Balance)
}

func TestTransfer_IdentityChecksInOrder(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(id *ledger.Identity)
		wantErr error
	}{
		{name: "all wrong reports name", mutate: func(id *ledger.Identity) {
			id.Name, id.BirthDate, id.Email, id.Password = "x", time.Time{}, "x", "x"
		}, wantErr: ledger.ErrNameMismatch},
		{name: "birth date", mutate: func(id *ledger.Identity) {
			id.BirthDate, id.Email, id.Password = birthDate.AddDate(0, 0, 1), "x", "x"
		}, wantErr: ledger.ErrBirthdateMismatch},
		{name: "email", mutate: func(id *ledger.Identity) {
			id.Email, id.Password = "x", "x"
		}, wantErr: ledger.ErrEmailMismatch},
		{name: "password", mutate: func(id *ledger.Identity) { id.Password = "x" }, wantErr: ledger.ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			alice := f.user("usr-1", "Alice")
			f.user("usr-2", "Bob")
			f.account("usr-1", "1000000000", 3_000_000)
			f.account("usr-2", "1000000001", 0)

			id := validIdentity(alice)
			tt.mutate(id)
			_, err := f.ledger.Transfer(ctx, caller("usr-1"), ledger.TransferRequest{
				SenderAccountNumber:   "1000000000",
				ReceiverAccountNumber: "1000000001",
				Amount:                2_000_000,
				Identity:              id,
			})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, ledger.KindConflict, ledger.KindOf(err))
			assert.Equal(t, int64(3_000_000), f.balance(t, "1000000000"))
		})
	}
}

func TestTransfer_IdentityRequiredOnlyAtThreshold(t *testing.T) {
	f := newFixture(t)
	f.user("usr-1", "Alice")
	f.user("usr-2", "Bob")
	f.account("usr-1", "1000000000", 3_000_000)
	f.account("usr-2", "1000000001", 0)

	_, err := f.ledger.Transfer(ctx, caller("usr-1"), ledger.TransferRequest{
		SenderAccountNumber: "1000000000", ReceiverAccountNumber: "1000000001", Amount: 1_000_000,
	})
	assert.ErrorIs(t, err, ledger.ErrIdentityRequired)

	// Below the threshold a supplied identity is ignored, even a wrong one.
	_, err = f.ledger.Transfer(ctx, caller("usr-1"), ledger.TransferRequest{
		SenderAccountNumber: "1000000000", ReceiverAccountNumber: "1000000001", Amount: 999_999,
		Identity: &ledger.Identity{Name: "nobody"},
	})
	require.NoError(t, err)
	assert.True(t, f.ledger.RequiresVerification(1_000_000))
	assert.False(t, f.ledger.RequiresVerification(999_999))
}

func TestTransfer_Failures(t *testing.T) {
	tests := []struct {
		name     string
		caller   string
		sender   string
		receiver string
		amount   int64
		wantErr  error
	}{
		{name: "zero amount", caller: "usr-1", sender: "1000000000", receiver: "1000000001", amount: 0, wantErr: ledger.ErrInvalidAmount},
		{name: "same account", caller: "usr-1", sender: "1000000000", receiver: "1000000000", amount: 1, wantErr: ledger.ErrSameAccount},
		{name: "user not found", caller: "usr-x", sender: "1000000000", receiver: "1000000001", amount: 1, wantErr: ledger.ErrUserNotFound},
		{name: "sender not found", caller: "usr-1", sender: "1000000099", receiver: "1000000001", amount: 1, wantErr: ledger.ErrAccountNotFound},
		{name: "receiver not found", caller: "usr-1", sender: "1000000000", receiver: "1000000099", amount: 1, wantErr: ledger.ErrAccountNotFound},
		{name: "not owner", caller: "usr-2", sender: "1000000000", receiver: "1000000001", amount: 1, wantErr: ledger.ErrOwnershipMismatch},
		{name: "receiver inactive", caller: "usr-1", sender: "1000000000", receiver: "1000000002", amount: 999_999, wantErr: ledger.ErrReceiverInactive},
		{name: "insufficient balance", caller: "usr-1", sender: "1000000000", receiver: "1000000001", amount: 5_001, wantErr: ledger.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.user("usr-1", "Alice")
			f.user("usr-2", "Bob")
			f.account("usr-1", "1000000000", 5_000)
			f.account("usr-2", "1000000001", 0)
			f.closedAccount("usr-2", "1000000002")

			_, err := f.ledger.Transfer(ctx, caller(tt.caller), ledger.TransferRequest{
				SenderAccountNumber:   tt.sender,
				ReceiverAccountNumber: tt.receiver,
				Amount:                tt.amount,
			})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int64(5_000), f.balance(t, "1000000000"))
			assert.Equal(t, int64(0), f.balance(t, "1000000001"))
			assert.Empty(t, f.store.Transactions())
		})
	}
}

func TestRecordFailure(t *testing.T) {
	f := newFixture(t)
	f.user("usr-1", "Alice")
	f.user("usr-2", "Bob")
	f.account("usr-1", "1000000000", 10)
	f.account("usr-2", "1000000001", 0)

	txn, err := f.ledger.RecordFailure(ctx, caller("usr-1"), ledger.FailureRequest{
		AccountNumber:         "1000000000",
		ReceiverAccountNumber: "1000000001",
		Amount:                500,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResultFail, txn.Result)
	assert.Equal(t, models.TransactionUse, txn.Type)
	assert.Equal(t, "Bob", txn.CounterpartyName)
	assert.Equal(t, int64(10), txn.BalanceSnapshot)
	assert.Equal(t, int64(10), f.balance(t, "1000000000"))

	own, err := f.ledger.RecordFailure(ctx, caller("usr-1"), ledger.FailureRequest{
		AccountNumber: "1000000000",
		Amount:        20,
	})
	require.NoError(t, err)
	assert.Equal(t, "1000000000", own.CounterpartyAccountNumber)
	assert.Equal(t, "Alice", own.CounterpartyName)

	_, err = f.ledger.RecordFailure(ctx, caller("usr-1"), ledger.FailureRequest{AccountNumber: "1000000000"})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	assert.Len(t, f.store.Transactions(), 2)
}
