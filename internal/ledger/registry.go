package ledger

import (
	"context"
	"errors"

	"github.com/accountz/ledger-service/shared/models"
	"github.com/accountz/ledger-service/shared/utils"
	"go.uber.org/zap"
)

const (
	accountNumberLockKey  = "lock:account-number"
	maxAllocationAttempts = 5
)

// CreateAccount opens a new empty account for the caller.
func (l *Ledger) CreateAccount(ctx context.Context, caller Caller) (*models.Account, error) {
	var created *models.Account
	err := l.locker.WithLock(ctx, accountNumberLockKey, func(ctx context.Context) error {
		var err error
		for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
			created, err = l.createAccount(ctx, caller)
			if !errors.Is(err, ErrDuplicate) {
				return err
			}
			l.logger.Warn("account number collision, retrying",
				zap.String("userId", caller.UserID), zap.Int("attempt", attempt))
		}
		return Persistence(err)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (l *Ledger) createAccount(ctx context.Context, caller Caller) (*models.Account, error) {
	var account *models.Account
	err := l.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		user, err := l.getUser(ctx, tx, caller.UserID, ErrOwnerNotFound)
		if err != nil {
			return err
		}
		count, err := tx.Accounts().CountByUserID(ctx, user.ID)
		if err != nil {
			return Persistence(err)
		}
		if count >= MaxAccountsPerOwner {
			return ErrAccountLimitExceeded
		}
		number, err := l.allocator.Allocate(ctx, tx.Accounts())
		if err != nil {
			return err
		}
		account = &models.Account{
			ID:            utils.GenerateID("acc"),
			UserID:        user.ID,
			AccountNumber: number,
			Balance:       0,
			Status:        models.AccountActive,
			RegisteredAt:  l.now().UTC(),
		}
		if err := tx.Accounts().Create(ctx, account); err != nil {
			if errors.Is(err, ErrDuplicate) {
				// Returned raw so CreateAccount can retry with a fresh number.
				return err
			}
			return Persistence(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// CloseAccount unregisters an empty account owned by the caller.
func (l *Ledger) CloseAccount(ctx context.Context, caller Caller, accountNumber string) (*models.Account, error) {
	var closed *models.Account
	err := l.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		user, err := l.getUser(ctx, tx, caller.UserID, ErrOwnerNotFound)
		if err != nil {
			return err
		}
		accounts, err := l.lockAccounts(ctx, tx, accountNumber)
		if err != nil {
			return err
		}
		account := accounts[0]
		if account.UserID != user.ID {
			return ErrOwnershipMismatch
		}
		if account.Status == models.AccountUnregistered {
			return ErrAlreadyClosed
		}
		if account.Balance > 0 {
			return ErrBalanceNotEmpty
		}
		now := l.now().UTC()
		account.Status = models.AccountUnregistered
		account.UnregisteredAt = &now
		if err := l.saveAccounts(ctx, tx, account); err != nil {
			return err
		}
		closed = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}
