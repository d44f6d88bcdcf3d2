package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/accountz/ledger-service/shared/models"
	sharedredis "github.com/accountz/ledger-service/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const userViewKeyPrefix = "user:view:"

// UserReadRepository serves user profiles, Redis first then PostgreSQL.
type UserReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.UserView]
}

func NewUserReadRepository(db *sql.DB, redisClient *goredis.Client, logger *zap.Logger) *UserReadRepository {
	return &UserReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.UserView](redisClient, 0, logger),
	}
}

func (r *UserReadRepository) GetByID(ctx context.Context, id string) (*models.UserView, error) {
	if view, ok := r.cache.Get(ctx, userViewKeyPrefix+id); ok {
		return view, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	view := models.NewUserView(user)
	r.CacheUserView(ctx, view)
	return view, nil
}

// CacheUserView stores or refreshes the Redis read model for a user.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	r.cache.Set(ctx, userViewKeyPrefix+view.ID, view)
}
