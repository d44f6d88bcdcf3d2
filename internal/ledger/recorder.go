package ledger

import (
	"context"
	"time"

	"github.com/accountz/ledger-service/shared/models"
	"github.com/accountz/ledger-service/shared/utils"
)

// Entry describes one transaction record to append.
type Entry struct {
	Type             models.TransactionType
	Result           models.TransactionResult
	UserID           string
	Account          *models.Account
	Amount           int64
	CounterpartyNo   string
	CounterpartyName string
}

// Recorder appends transaction records. The balance snapshot is read from
// the originating account as it stands when Record is called, so callers
// apply their balance mutation first.
type Recorder struct {
	now   func() time.Time
	newID func() string
}

func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now, newID: utils.GenerateTransactionID}
}

func (r *Recorder) Record(ctx context.Context, txns TransactionRepository, e Entry) (*models.Transaction, error) {
	txn := &models.Transaction{
		ID:                        utils.GenerateID("txn"),
		TransactionID:             r.newID(),
		UserID:                    e.UserID,
		AccountNumber:             e.Account.AccountNumber,
		Type:                      e.Type,
		Result:                    e.Result,
		CounterpartyAccountNumber: e.CounterpartyNo,
		CounterpartyName:          e.CounterpartyName,
		Amount:                    e.Amount,
		BalanceSnapshot:           e.Account.Balance,
		TransactedAt:              r.now().UTC(),
	}
	if err := txns.Create(ctx, txn); err != nil {
		return nil, Persistence(err)
	}
	return txn, nil
}
