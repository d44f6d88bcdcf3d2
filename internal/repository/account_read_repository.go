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
	accountViewKeyPrefix    = "account:view:"
	processedEventKeyPrefix = "processed:event:"
	processedEventTTL       = 72 * time.Hour
)

// accountCacheEntry is the Redis representation of an account. Unlike
// models.AccountView it serialises UserID so ownership checks can be served
// from the cache.
type accountCacheEntry struct {
	models.AccountView
	UserID string `json:"userId"`
}

// AccountReadRepository handles all read operations for accounts.
// It treats Redis as the primary read store (the CQRS read model) and falls
// back to PostgreSQL transparently, warming the cache on every cold read.
type AccountReadRepository struct {
	db     *sql.DB
	redis  *goredis.Client
	cache  *sharedredis.ViewCache[accountCacheEntry]
	logger *zap.Logger
}

func NewAccountReadRepository(db *sql.DB, redisClient *goredis.Client, logger *zap.Logger) *AccountReadRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountReadRepository{
		db:     db,
		redis:  redisClient,
		cache:  sharedredis.NewViewCache[accountCacheEntry](redisClient, 0, logger),
		logger: logger,
	}
}

func (e *accountCacheEntry) view() *models.AccountView {
	v := e.AccountView
	v.UserID = e.UserID
	return &v
}

// GetByAccountNumber returns an AccountView, trying Redis first then PostgreSQL.
func (r *AccountReadRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.AccountView, error) {
	if entry, ok := r.cache.Get(ctx, accountViewKeyPrefix+accountNumber); ok {
		return entry.view(), nil
	}
	view, err := r.load(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	r.CacheAccountView(ctx, view)
	return view, nil
}

func (r *AccountReadRepository) load(ctx context.Context, accountNumber string) (*models.AccountView, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, accountNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountNumber, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return models.NewAccountView(account), nil
}

// ListByUserID returns all AccountViews for the given user from PostgreSQL.
func (r *AccountReadRepository) ListByUserID(ctx context.Context, userID string) ([]models.AccountView, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_id = $1
		ORDER BY account_number
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	views := []models.AccountView{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		views = append(views, *models.NewAccountView(account))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return views, nil
}

// CacheAccountView stores or refreshes the Redis read model for an account.
func (r *AccountReadRepository) CacheAccountView(ctx context.Context, view *models.AccountView) {
	r.cache.Set(ctx, accountViewKeyPrefix+view.AccountNumber, &accountCacheEntry{
		AccountView: *view,
		UserID:      view.UserID,
	})
}

// InvalidateAccountView drops cached views so the next read goes to PostgreSQL.
func (r *AccountReadRepository) InvalidateAccountView(ctx context.Context, accountNumbers ...string) {
	keys := make([]string, 0, len(accountNumbers))
	for _, n := range accountNumbers {
		keys = append(keys, accountViewKeyPrefix+n)
	}
	r.cache.Delete(ctx, keys...)
}

// RefreshAccountView reloads the account from PostgreSQL into the cache.
func (r *AccountReadRepository) RefreshAccountView(ctx context.Context, accountNumber string) error {
	view, err := r.load(ctx, accountNumber)
	if err != nil {
		return err
	}
	r.CacheAccountView(ctx, view)
	return nil
}

// IsEventProcessed returns true if this event has already been applied to
// the read model. Guards against duplicate delivery under at-least-once
// Redis Streams semantics.
func (r *AccountReadRepository) IsEventProcessed(ctx context.Context, eventID string) bool {
	val, err := r.redis.Exists(ctx, processedEventKeyPrefix+eventID).Result()
	return err == nil && val > 0
}

// MarkEventProcessed records that an event has been applied. The key
// expires after 72 hours, longer than any realistic redelivery window.
func (r *AccountReadRepository) MarkEventProcessed(ctx context.Context, eventID string) {
	if err := r.redis.Set(ctx, processedEventKeyPrefix+eventID, "1", processedEventTTL).Err(); err != nil {
		r.logger.Error("failed to mark event processed", zap.String("eventId", eventID), zap.Error(err))
	}
}
