package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/lib/pq"
)

// Repository sentinels are the ledger's, so the ledger core can classify
// storage failures without knowing about Postgres.
var (
	ErrNotFound  = ledger.ErrNotFound
	ErrDuplicate = ledger.ErrDuplicate
)

const uniqueViolation = "23505"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store runs atomic units as PostgreSQL transactions.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Atomic commits everything fn wrote through tx when fn returns nil and
// rolls it all back otherwise.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
			}
		}
	}()

	if err = fn(ctx, &txScope{q: sqlTx}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to commit: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

type txScope struct {
	q querier
}

func (t *txScope) Users() ledger.UserDirectory        { return NewUserWriteRepository(t.q) }
func (t *txScope) Accounts() ledger.AccountRepository { return NewAccountWriteRepository(t.q) }
func (t *txScope) Transactions() ledger.TransactionRepository {
	return NewTransactionWriteRepository(t.q)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
