package memory

import (
	"context"
	"sort"
	"time"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/shared/models"
)

// AccountViews serves account read models straight from committed state.
// There is no separate cache, so the cache hooks do nothing.
type AccountViews struct{ s *Store }

func (s *Store) AccountViews() *AccountViews { return &AccountViews{s: s} }

func (r *AccountViews) GetByAccountNumber(_ context.Context, accountNumber string) (*models.AccountView, error) {
	a := r.s.Account(accountNumber)
	if a == nil {
		return nil, ledger.ErrNotFound
	}
	return models.NewAccountView(a), nil
}

func (r *AccountViews) ListByUserID(_ context.Context, userID string) ([]models.AccountView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	views := []models.AccountView{}
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			views = append(views, *models.NewAccountView(copyAccount(a)))
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].AccountNumber < views[j].AccountNumber })
	return views, nil
}

func (r *AccountViews) CacheAccountView(context.Context, *models.AccountView) {}

func (r *AccountViews) InvalidateAccountView(context.Context, ...string) {}

func (r *AccountViews) RefreshAccountView(ctx context.Context, accountNumber string) error {
	_, err := r.GetByAccountNumber(ctx, accountNumber)
	return err
}

func (r *AccountViews) IsEventProcessed(_ context.Context, id string) bool {
	r.s.processedMu.Lock()
	defer r.s.processedMu.Unlock()
	_, ok := r.s.processed[id]
	return ok
}

func (r *AccountViews) MarkEventProcessed(_ context.Context, id string) {
	r.s.processedMu.Lock()
	defer r.s.processedMu.Unlock()
	r.s.processed[id] = struct{}{}
}

// TransactionViews serves transaction history from committed state.
type TransactionViews struct{ s *Store }

func (s *Store) TransactionViews() *TransactionViews { return &TransactionViews{s: s} }

func (r *TransactionViews) GetByTransactionID(_ context.Context, transactionID string) (*models.TransactionView, error) {
	t := r.s.Transaction(transactionID)
	if t == nil {
		return nil, ledger.ErrNotFound
	}
	return models.NewTransactionView(t), nil
}

func (r *TransactionViews) filter(keep func(*models.Transaction) bool) []models.TransactionView {
	views := []models.TransactionView{}
	for _, t := range r.s.Transactions() {
		t := t
		if keep(&t) {
			views = append(views, *models.NewTransactionView(&t))
		}
	}
	return views
}

func newestFirst(views []models.TransactionView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].TransactedAt.After(views[j].TransactedAt)
	})
}

func (r *TransactionViews) ListByUserID(_ context.Context, userID string) ([]models.TransactionView, error) {
	views := r.filter(func(t *models.Transaction) bool { return t.UserID == userID })
	newestFirst(views)
	return views, nil
}

func (r *TransactionViews) ListReceivedByAccount(_ context.Context, accountNumber string) ([]models.TransactionView, error) {
	views := r.filter(func(t *models.Transaction) bool {
		return t.CounterpartyAccountNumber == accountNumber && t.Type == models.TransactionUse
	})
	newestFirst(views)
	return views, nil
}

func (r *TransactionViews) ListByUserOrderByCounterparty(_ context.Context, userID string) ([]models.TransactionView, error) {
	views := r.filter(func(t *models.Transaction) bool { return t.UserID == userID })
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CounterpartyName < views[j].CounterpartyName
	})
	return views, nil
}

func (r *TransactionViews) ListByUserBetween(_ context.Context, userID string, from, to time.Time) ([]models.TransactionView, error) {
	views := r.filter(func(t *models.Transaction) bool {
		return t.UserID == userID && !t.TransactedAt.Before(from) && !t.TransactedAt.After(to)
	})
	newestFirst(views)
	return views, nil
}

func (r *TransactionViews) ListByUserAndResult(_ context.Context, userID string, result models.TransactionResult) ([]models.TransactionView, error) {
	views := r.filter(func(t *models.Transaction) bool { return t.UserID == userID && t.Result == result })
	newestFirst(views)
	return views, nil
}

func (r *TransactionViews) CacheTransactionView(context.Context, *models.TransactionView) {}

func (r *TransactionViews) InvalidateTransactionView(context.Context, ...string) {}

// Users exposes the user directory outside an atomic unit.
type Users struct{ s *Store }

func (s *Store) Users() *Users { return &Users{s: s} }

func (r *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	id, ok := r.s.userByEmail[email]
	r.s.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Create inserts a user in its own atomic unit.
func (r *Users) Create(ctx context.Context, user *models.User) error {
	return r.s.Atomic(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.Users().Create(ctx, user)
	})
}

// UserViews serves user profiles from committed state.
type UserViews struct{ s *Store }

func (s *Store) UserViews() *UserViews { return &UserViews{s: s} }

func (r *UserViews) GetByID(ctx context.Context, id string) (*models.UserView, error) {
	u, err := r.s.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return models.NewUserView(u), nil
}

func (r *UserViews) CacheUserView(context.Context, *models.UserView) {}
