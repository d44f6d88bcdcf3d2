package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/accountz/ledger-service/shared/models"
	"github.com/lib/pq"
)

const accountColumns = `id, user_id, account_number, balance, status, registered_at, unregistered_at`

// AccountWriteRepository handles all state-mutating operations for accounts.
// Bound to a transaction it is the ledger's AccountRepository.
type AccountWriteRepository struct {
	q querier
}

func NewAccountWriteRepository(q querier) *AccountWriteRepository {
	return &AccountWriteRepository{q: q}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var unregisteredAt sql.NullTime
	if err := row.Scan(
		&account.ID, &account.UserID, &account.AccountNumber, &account.Balance,
		&account.Status, &account.RegisteredAt, &unregisteredAt,
	); err != nil {
		return nil, err
	}
	if unregisteredAt.Valid {
		t := unregisteredAt.Time.UTC()
		account.UnregisteredAt = &t
	}
	account.RegisteredAt = account.RegisteredAt.UTC()
	return &account, nil
}

// Lock selects the accounts FOR UPDATE. Row locks are acquired in
// account_number order so two units locking the same pair cannot deadlock.
func (r *AccountWriteRepository) Lock(ctx context.Context, accountNumbers ...string) (map[string]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = ANY($1)
		ORDER BY account_number
		FOR UPDATE
	`
	rows, err := r.q.QueryContext(ctx, query, pq.Array(accountNumbers))
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	defer rows.Close()

	locked := make(map[string]*models.Account, len(accountNumbers))
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		locked[account.AccountNumber] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	for _, n := range accountNumbers {
		if _, ok := locked[n]; !ok {
			return locked, fmt.Errorf("account %s: %w", n, ErrNotFound)
		}
	}
	return locked, nil
}

// Get fetches the full write model including UserID for ownership checks.
func (r *AccountWriteRepository) Get(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	account, err := scanAccount(r.q.QueryRowContext(ctx, query, accountNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountNumber, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (r *AccountWriteRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, account_number, balance, status, registered_at, unregistered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		account.ID, account.UserID, account.AccountNumber, account.Balance,
		account.Status, account.RegisteredAt, account.UnregisteredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account number %s: %w", account.AccountNumber, ErrDuplicate)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// Save writes the mutable columns: balance and lifecycle state.
func (r *AccountWriteRepository) Save(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET balance = $2, status = $3, unregistered_at = $4
		WHERE account_number = $1
	`
	result, err := r.q.ExecContext(ctx, query,
		account.AccountNumber, account.Balance, account.Status, account.UnregisteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account %s: %w", account.AccountNumber, ErrNotFound)
	}
	return nil
}

// CountByUserID counts every account the user ever opened, closed ones included.
func (r *AccountWriteRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM accounts WHERE user_id = $1`
	var count int
	if err := r.q.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

func (r *AccountWriteRepository) HighestAccountNumber(ctx context.Context) (string, error) {
	query := `SELECT account_number FROM accounts ORDER BY account_number DESC LIMIT 1`
	var number string
	err := r.q.QueryRowContext(ctx, query).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find highest account number: %w", err)
	}
	return number, nil
}
