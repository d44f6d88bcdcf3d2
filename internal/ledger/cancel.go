package ledger

import (
	"context"
	"errors"

	"github.com/accountz/ledger-service/shared/models"
)

type CancelRequest struct {
	TransactionID         string
	SenderAccountNumber   string
	ReceiverAccountNumber string
	Amount                int64
}

// Cancel reverses a successful transfer in full. The reversal, the terminal
// mark on the original and the CANCEL record commit together, so a
// transaction can be cancelled at most once.
func (l *Ledger) Cancel(ctx context.Context, caller Caller, req CancelRequest) (*models.Transaction, error) {
	var recorded *models.Transaction
	err := l.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		user, err := l.getUser(ctx, tx, caller.UserID, ErrUserNotFound)
		if err != nil {
			return err
		}
		if _, err := l.getTransaction(ctx, tx, req.TransactionID); err != nil {
			return err
		}
		accounts, err := l.lockAccounts(ctx, tx, req.SenderAccountNumber, req.ReceiverAccountNumber)
		if err != nil {
			return err
		}
		sender, receiver := accounts[0], accounts[1]
		if sender.UserID != user.ID {
			return ErrOwnershipMismatch
		}
		// Re-read under the account locks so a concurrent cancellation that
		// committed first is observed.
		original, err := l.getTransaction(ctx, tx, req.TransactionID)
		if err != nil {
			return err
		}
		if err := l.checkCancellable(original, sender, receiver, req.Amount); err != nil {
			return err
		}
		receiverOwner, err := l.getUser(ctx, tx, receiver.UserID, ErrUserNotFound)
		if err != nil {
			return err
		}

		if _, err := ReverseDebit(sender, req.Amount); err != nil {
			return err
		}
		if _, err := ReverseCredit(receiver, req.Amount); err != nil {
			return err
		}
		if err := l.saveAccounts(ctx, tx, sender, receiver); err != nil {
			return err
		}
		if err := tx.Transactions().UpdateResult(ctx, original.TransactionID, models.ResultExpiredAfterSuccess); err != nil {
			return Persistence(err)
		}
		recorded, err = l.recorder.Record(ctx, tx.Transactions(), Entry{
			Type:             models.TransactionCancel,
			Result:           models.ResultSuccess,
			UserID:           user.ID,
			Account:          sender,
			Amount:           req.Amount,
			CounterpartyNo:   receiver.AccountNumber,
			CounterpartyName: receiverOwner.Name,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

func (l *Ledger) checkCancellable(original *models.Transaction, sender, receiver *models.Account, amount int64) error {
	if original.AccountNumber != sender.AccountNumber ||
		original.CounterpartyAccountNumber != receiver.AccountNumber {
		return ErrTransactionAccountMismatch
	}
	if amount != original.Amount {
		return ErrPartialCancelNotAllowed
	}
	if l.now().Sub(original.TransactedAt) > CancellationWindow {
		return ErrCancellationWindowExpired
	}
	if original.Result == models.ResultExpiredAfterSuccess {
		return ErrAlreadyCancelled
	}
	if original.Type != models.TransactionUse || original.Result != models.ResultSuccess ||
		original.CounterpartyAccountNumber == original.AccountNumber {
		return ErrNotCancellable
	}
	return nil
}

func (l *Ledger) getTransaction(ctx context.Context, tx Tx, transactionID string) (*models.Transaction, error) {
	txn, err := tx.Transactions().GetByTransactionID(ctx, transactionID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, Persistence(err)
	}
	return txn, nil
}
