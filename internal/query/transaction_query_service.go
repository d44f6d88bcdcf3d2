package query

import (
	"context"
	"errors"
	"time"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/shared/cqrs"
	"github.com/accountz/ledger-service/shared/models"
)

// TransactionQueryService serves transaction history. Single lookups and
// per-account listings are checked against the requesting user.
type TransactionQueryService struct {
	readRepo    TransactionReader
	accountRepo AccountReader
}

func NewTransactionQueryService(readRepo TransactionReader, accountRepo AccountReader) *TransactionQueryService {
	return &TransactionQueryService{readRepo: readRepo, accountRepo: accountRepo}
}

func (s *TransactionQueryService) GetTransaction(ctx context.Context, q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	view, err := s.readRepo.GetByTransactionID(ctx, q.TransactionID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return nil, ledger.Persistence(err)
	}
	if view.UserID != q.UserID {
		return nil, ledger.ErrForbidden
	}
	return view, nil
}

// ListTransactions returns every transaction the user originated, newest first.
func (s *TransactionQueryService) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	return list(s.readRepo.ListByUserID(ctx, q.UserID))
}

// ListReceived returns the payments into an account the user owns.
func (s *TransactionQueryService) ListReceived(ctx context.Context, q cqrs.ListReceivedTransactionsQuery) ([]models.TransactionView, error) {
	if _, err := ownedAccount(ctx, s.accountRepo, q.AccountNumber, q.UserID); err != nil {
		return nil, err
	}
	return list(s.readRepo.ListReceivedByAccount(ctx, q.AccountNumber))
}

func (s *TransactionQueryService) ListByCounterparty(ctx context.Context, q cqrs.ListByCounterpartyQuery) ([]models.TransactionView, error) {
	return list(s.readRepo.ListByUserOrderByCounterparty(ctx, q.UserID))
}

// ListBetween returns the user's transactions from the start of q.From to
// the last second of q.To.
func (s *TransactionQueryService) ListBetween(ctx context.Context, q cqrs.ListBetweenQuery) ([]models.TransactionView, error) {
	from, to := DayRange(q.From, q.To)
	if !from.Before(to) {
		return nil, ledger.ErrInvalidDateRange
	}
	return list(s.readRepo.ListByUserBetween(ctx, q.UserID, from, to))
}

func (s *TransactionQueryService) ListFailed(ctx context.Context, q cqrs.ListFailedTransactionsQuery) ([]models.TransactionView, error) {
	return list(s.readRepo.ListByUserAndResult(ctx, q.UserID, models.ResultFail))
}

// DayRange widens two calendar dates to [first 00:00:00, last 23:59:59].
func DayRange(first, last time.Time) (time.Time, time.Time) {
	y, m, d := first.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, first.Location())
	y, m, d = last.Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, last.Location()).AddDate(0, 0, 1).Add(-time.Second)
	return from, to
}

func list(views []models.TransactionView, err error) ([]models.TransactionView, error) {
	if err != nil {
		return nil, ledger.Persistence(err)
	}
	return views, nil
}
