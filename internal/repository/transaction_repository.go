package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/accountz/ledger-service/shared/models"
)

const transactionColumns = `id, transaction_id, user_id, account_number, type, result,
	counterparty_account_number, counterparty_name, amount, balance_snapshot, transacted_at`

// TransactionWriteRepository appends transaction records and applies the
// single permitted result transition.
type TransactionWriteRepository struct {
	q querier
}

func NewTransactionWriteRepository(q querier) *TransactionWriteRepository {
	return &TransactionWriteRepository{q: q}
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var counterpartyNo, counterpartyName sql.NullString
	if err := row.Scan(
		&t.ID, &t.TransactionID, &t.UserID, &t.AccountNumber, &t.Type, &t.Result,
		&counterpartyNo, &counterpartyName, &t.Amount, &t.BalanceSnapshot, &t.TransactedAt,
	); err != nil {
		return nil, err
	}
	t.CounterpartyAccountNumber = counterpartyNo.String
	t.CounterpartyName = counterpartyName.String
	t.TransactedAt = t.TransactedAt.UTC()
	return &t, nil
}

func (r *TransactionWriteRepository) Create(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.q.ExecContext(ctx, query,
		t.ID, t.TransactionID, t.UserID, t.AccountNumber, t.Type, t.Result,
		nullString(t.CounterpartyAccountNumber), nullString(t.CounterpartyName),
		t.Amount, t.BalanceSnapshot, t.TransactedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("transaction %s: %w", t.TransactionID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *TransactionWriteRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`
	t, err := scanTransaction(r.q.QueryRowContext(ctx, query, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// UpdateResult moves a SUCCESS record to result. Records in any other state
// are left alone and reported as not found.
func (r *TransactionWriteRepository) UpdateResult(ctx context.Context, transactionID string, result models.TransactionResult) error {
	query := `
		UPDATE transactions
		SET result = $2
		WHERE transaction_id = $1 AND result = $3
	`
	res, err := r.q.ExecContext(ctx, query, transactionID, result, models.ResultSuccess)
	if err != nil {
		return fmt.Errorf("failed to update transaction result: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("successful transaction %s: %w", transactionID, ErrNotFound)
	}
	return nil
}
