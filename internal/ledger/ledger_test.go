package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/internal/repository/memory"
	"github.com/accountz/ledger-service/shared/models"
	"github.com/stretchr/testify/require"
)

var birthDate = time.Date(1990, time.March, 14, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	ledger *ledger.Ledger
	now    time.Time
}

// plainVerifier compares passwords directly so tests avoid bcrypt cost.
var plainVerifier = ledger.PasswordVerifierFunc(func(plaintext, hash string) bool {
	return plaintext == hash
})

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		now:   time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC),
	}
	f.ledger = ledger.New(f.store, ledger.Config{
		Verifier: plainVerifier,
		Now:      func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) user(id, name string) *models.User {
	u := &models.User{
		ID:           id,
		Name:         name,
		Email:        id + "@example.com",
		BirthDate:    birthDate,
		PasswordHash: "pw-" + id,
		CreatedAt:    f.now,
		UpdatedAt:    f.now,
	}
	f.store.SeedUser(u)
	return u
}

func (f *fixture) account(userID, number string, balance int64) *models.Account {
	a := &models.Account{
		ID:            "acc-" + number,
		UserID:        userID,
		AccountNumber: number,
		Balance:       balance,
		Status:        models.AccountActive,
		RegisteredAt:  f.now,
	}
	f.store.SeedAccount(a)
	return a
}

func (f *fixture) closedAccount(userID, number string) *models.Account {
	at := f.now
	a := &models.Account{
		ID:             "acc-" + number,
		UserID:         userID,
		AccountNumber:  number,
		Status:         models.AccountUnregistered,
		RegisteredAt:   f.now,
		UnregisteredAt: &at,
	}
	f.store.SeedAccount(a)
	return a
}

func (f *fixture) balance(t *testing.T, number string) int64 {
	t.Helper()
	a := f.store.Account(number)
	require.NotNil(t, a, "account %s", number)
	return a.Balance
}

func caller(id string) ledger.Caller { return ledger.Caller{UserID: id} }

var ctx = context.Background()
