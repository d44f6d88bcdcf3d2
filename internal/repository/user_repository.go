package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/accountz/ledger-service/shared/models"
)

const userColumns = `id, name, email, birth_date, password_hash, created_at, updated_at`

// UserWriteRepository reads and writes the users table. It is the ledger's
// UserDirectory and also serves registration and login outside a unit.
type UserWriteRepository struct {
	q querier
}

func NewUserWriteRepository(q querier) *UserWriteRepository {
	return &UserWriteRepository{q: q}
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.BirthDate, &user.PasswordHash,
		&user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserWriteRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.BirthDate, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID fetches the full write model (including PasswordHash) for internal operations.
func (r *UserWriteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *UserWriteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserWriteRepository) getOne(ctx context.Context, query, arg string) (*models.User, error) {
	user, err := scanUser(r.q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
