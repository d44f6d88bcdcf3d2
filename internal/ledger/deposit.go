package ledger

import (
	"context"

	"github.com/accountz/ledger-service/shared/models"
)

// Deposit credits amount to an active account owned by the caller.
func (l *Ledger) Deposit(ctx context.Context, caller Caller, accountNumber string, amount int64) (*models.Transaction, error) {
	return l.moveOwn(ctx, caller, accountNumber, amount, Credit)
}

// Withdraw debits amount from an active account owned by the caller.
func (l *Ledger) Withdraw(ctx context.Context, caller Caller, accountNumber string, amount int64) (*models.Transaction, error) {
	return l.moveOwn(ctx, caller, accountNumber, amount, Debit)
}

func (l *Ledger) moveOwn(
	ctx context.Context,
	caller Caller,
	accountNumber string,
	amount int64,
	mutate func(*models.Account, int64) (int64, error),
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	var recorded *models.Transaction
	err := l.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		user, err := l.getUser(ctx, tx, caller.UserID, ErrUserNotFound)
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
		if !account.IsActive() {
			return ErrAlreadyClosed
		}
		if _, err := mutate(account, amount); err != nil {
			return err
		}
		if err := l.saveAccounts(ctx, tx, account); err != nil {
			return err
		}
		recorded, err = l.recorder.Record(ctx, tx.Transactions(), Entry{
			Type:             models.TransactionUse,
			Result:           models.ResultSuccess,
			UserID:           user.ID,
			Account:          account,
			Amount:           amount,
			CounterpartyNo:   account.AccountNumber,
			CounterpartyName: user.Name,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}
