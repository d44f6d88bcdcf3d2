package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/accountz/ledger-service/shared/models"
	sharedredis "github.com/accountz/ledger-service/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	transactionViewKeyPrefix = "transaction:view:"
	transactionViewTTL       = 24 * time.Hour
)

type transactionCacheEntry struct {
	models.TransactionView
	UserID string `json:"userId"`
}

// TransactionReadRepository handles all read operations for transactions.
// Single lookups use Redis first and fall back to PostgreSQL; history
// listings always come from PostgreSQL.
type TransactionReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[transactionCacheEntry]
}

func NewTransactionReadRepository(db *sql.DB, redisClient *goredis.Client, logger *zap.Logger) *TransactionReadRepository {
	return &TransactionReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[transactionCacheEntry](redisClient, transactionViewTTL, logger),
	}
}

// GetByTransactionID returns a TransactionView by attempting Redis first, then PostgreSQL.
func (r *TransactionReadRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.TransactionView, error) {
	if entry, ok := r.cache.Get(ctx, transactionViewKeyPrefix+transactionID); ok {
		v := entry.TransactionView
		v.UserID = entry.UserID
		return &v, nil
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	view := models.NewTransactionView(t)
	r.CacheTransactionView(ctx, view)
	return view, nil
}

func (r *TransactionReadRepository) list(ctx context.Context, where, orderBy string, args ...any) ([]models.TransactionView, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where + ` ORDER BY ` + orderBy
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	views := []models.TransactionView{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		views = append(views, *models.NewTransactionView(t))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return views, nil
}

// ListByUserID returns every transaction the user originated, newest first.
func (r *TransactionReadRepository) ListByUserID(ctx context.Context, userID string) ([]models.TransactionView, error) {
	return r.list(ctx, `user_id = $1`, `transacted_at DESC, id`, userID)
}

// ListReceivedByAccount returns the money movements that named the account
// as counterparty, newest first.
func (r *TransactionReadRepository) ListReceivedByAccount(ctx context.Context, accountNumber string) ([]models.TransactionView, error) {
	return r.list(ctx, `counterparty_account_number = $1 AND type = $2`, `transacted_at DESC, id`,
		accountNumber, models.TransactionUse)
}

func (r *TransactionReadRepository) ListByUserOrderByCounterparty(ctx context.Context, userID string) ([]models.TransactionView, error) {
	return r.list(ctx, `user_id = $1`, `counterparty_name ASC NULLS LAST, transacted_at DESC`, userID)
}

// ListByUserBetween returns the user's transactions with from <= transacted_at <= to.
func (r *TransactionReadRepository) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]models.TransactionView, error) {
	return r.list(ctx, `user_id = $1 AND transacted_at BETWEEN $2 AND $3`, `transacted_at DESC, id`, userID, from, to)
}

func (r *TransactionReadRepository) ListByUserAndResult(ctx context.Context, userID string, result models.TransactionResult) ([]models.TransactionView, error) {
	return r.list(ctx, `user_id = $1 AND result = $2`, `transacted_at DESC, id`, userID, result)
}

// CacheTransactionView stores the read model for a transaction in Redis.
func (r *TransactionReadRepository) CacheTransactionView(ctx context.Context, view *models.TransactionView) {
	r.cache.Set(ctx, transactionViewKeyPrefix+view.TransactionID, &transactionCacheEntry{
		TransactionView: *view,
		UserID:          view.UserID,
	})
}

// InvalidateTransactionView drops cached transactions whose result changed.
func (r *TransactionReadRepository) InvalidateTransactionView(ctx context.Context, transactionIDs ...string) {
	keys := make([]string, 0, len(transactionIDs))
	for _, id := range transactionIDs {
		keys = append(keys, transactionViewKeyPrefix+id)
	}
	r.cache.Delete(ctx, keys...)
}
