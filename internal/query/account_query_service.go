package query

import (
	"context"
	"errors"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/shared/cqrs"
	"github.com/accountz/ledger-service/shared/models"
)

type AccountQueryService struct {
	readRepo AccountReader
}

func NewAccountQueryService(readRepo AccountReader) *AccountQueryService {
	return &AccountQueryService{readRepo: readRepo}
}

// GetAccount fetches a single account view and enforces ownership.
func (s *AccountQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	return ownedAccount(ctx, s.readRepo, q.AccountNumber, q.RequestingUserID)
}

func (s *AccountQueryService) ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error) {
	views, err := s.readRepo.ListByUserID(ctx, q.UserID)
	if err != nil {
		return nil, ledger.Persistence(err)
	}
	return views, nil
}

// ownedAccount loads an account view and checks that userID owns it.
// The AccountView carries UserID (json:"-") for this purpose.
func ownedAccount(ctx context.Context, accounts AccountReader, accountNumber, userID string) (*models.AccountView, error) {
	view, err := accounts.GetByAccountNumber(ctx, accountNumber)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, ledger.Persistence(err)
	}
	if view.UserID != userID {
		return nil, ledger.ErrOwnershipMismatch
	}
	return view, nil
}
