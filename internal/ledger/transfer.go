package ledger

import (
	"context"
	"time"

	"github.com/accountz/ledger-service/shared/models"
)

// Identity is what a sender supplies to re-authenticate a large transfer.
type Identity struct {
	Name      string
	BirthDate time.Time
	Email     string
	Password  string
}

type TransferRequest struct {
	SenderAccountNumber   string
	ReceiverAccountNumber string
	Amount                int64
	// Identity is required when Amount is at or above the large transfer
	// threshold and ignored below it.
	Identity *Identity
}

// FailureRequest names the account pair and amount of a failed movement.
type FailureRequest struct {
	AccountNumber         string
	ReceiverAccountNumber string
	Amount                int64
}

// Transfer moves money from one of the caller's accounts to another account.
// The debit, the credit and the transaction record commit together.
func (l *Ledger) Transfer(ctx context.Context, caller Caller, req TransferRequest) (*models.Transaction, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.SenderAccountNumber == req.ReceiverAccountNumber {
		return nil, ErrSameAccount
	}
	verified := l.RequiresVerification(req.Amount)

	var recorded *models.Transaction
	err := l.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		user, err := l.getUser(ctx, tx, caller.UserID, ErrUserNotFound)
		if err != nil {
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
		if verified {
			if err := l.verifyIdentity(user, req.Identity); err != nil {
				return err
			}
		}
		if !receiver.IsActive() {
			return ErrReceiverInactive
		}
		receiverOwner, err := l.getUser(ctx, tx, receiver.UserID, ErrUserNotFound)
		if err != nil {
			return err
		}

		if _, err := Debit(sender, req.Amount); err != nil {
			return err
		}
		if _, err := Credit(receiver, req.Amount); err != nil {
			return err
		}
		if err := l.saveAccounts(ctx, tx, sender, receiver); err != nil {
			return err
		}
		recorded, err = l.recorder.Record(ctx, tx.Transactions(), Entry{
			Type:             models.TransactionUse,
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

// verifyIdentity checks name, birth date, email and password in that order
// and reports the first mismatch.
func (l *Ledger) verifyIdentity(user *models.User, id *Identity) error {
	if id == nil {
		return ErrIdentityRequired
	}
	if user.Name != id.Name {
		return ErrNameMismatch
	}
	if !sameDate(user.BirthDate, id.BirthDate) {
		return ErrBirthdateMismatch
	}
	if user.Email != id.Email {
		return ErrEmailMismatch
	}
	if !l.verifier.Matches(id.Password, user.PasswordHash) {
		return ErrPasswordMismatch
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// RecordFailure appends a FAIL record for a money movement that did not go
// through. Balances are left untouched. It runs in its own atomic unit so a
// failure here never affects the outcome of the original operation.
func (l *Ledger) RecordFailure(ctx context.Context, caller Caller, req FailureRequest) (*models.Transaction, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.ReceiverAccountNumber == "" {
		req.ReceiverAccountNumber = req.AccountNumber
	}
	var recorded *models.Transaction
	err := l.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		user, err := l.getUser(ctx, tx, caller.UserID, ErrUserNotFound)
		if err != nil {
			return err
		}
		account, err := l.getAccount(ctx, tx, req.AccountNumber)
		if err != nil {
			return err
		}
		receiver, err := l.getAccount(ctx, tx, req.ReceiverAccountNumber)
		if err != nil {
			return err
		}
		receiverOwner, err := l.getUser(ctx, tx, receiver.UserID, ErrUserNotFound)
		if err != nil {
			return err
		}
		recorded, err = l.recorder.Record(ctx, tx.Transactions(), Entry{
			Type:             models.TransactionUse,
			Result:           models.ResultFail,
			UserID:           user.ID,
			Account:          account,
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
