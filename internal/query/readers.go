// Package query serves the read side: account and transaction views, user
// profiles and authentication tokens. Nothing here mutates ledger state.
package query

import (
	"context"
	"time"

	"github.com/accountz/ledger-service/shared/models"
)

// AccountReader is satisfied by the Postgres/Redis read repository and by
// the in-memory views.
type AccountReader interface {
	GetByAccountNumber(ctx context.Context, accountNumber string) (*models.AccountView, error)
	ListByUserID(ctx context.Context, userID string) ([]models.AccountView, error)
}

type TransactionReader interface {
	GetByTransactionID(ctx context.Context, transactionID string) (*models.TransactionView, error)
	ListByUserID(ctx context.Context, userID string) ([]models.TransactionView, error)
	ListReceivedByAccount(ctx context.Context, accountNumber string) ([]models.TransactionView, error)
	ListByUserOrderByCounterparty(ctx context.Context, userID string) ([]models.TransactionView, error)
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]models.TransactionView, error)
	ListByUserAndResult(ctx context.Context, userID string, result models.TransactionResult) ([]models.TransactionView, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (*models.UserView, error)
}

// CredentialReader returns the full user record, password hash included.
type CredentialReader interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
