package ledger

import (
	"context"
	"errors"

	"github.com/accountz/ledger-service/shared/models"
)

// Repository level sentinels. Storage implementations return these (possibly
// wrapped) so the ledger can translate them into its own error taxonomy.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// UserDirectory resolves users.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// AccountRepository reads and writes accounts inside one atomic unit.
type AccountRepository interface {
	// Lock loads the accounts with the given numbers and holds a write lock on
	// each of them until the surrounding unit ends. Locks are taken in
	// ascending account number order whatever the argument order. The result
	// is keyed by account number; missing accounts yield ErrNotFound.
	Lock(ctx context.Context, accountNumbers ...string) (map[string]*models.Account, error)
	Get(ctx context.Context, accountNumber string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	Save(ctx context.Context, account *models.Account) error
	CountByUserID(ctx context.Context, userID string) (int, error)
	// HighestAccountNumber returns the largest allocated account number, or
	// "" when no account exists yet.
	HighestAccountNumber(ctx context.Context) (string, error)
}

// TransactionRepository appends transaction records and applies the single
// permitted result transition.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	UpdateResult(ctx context.Context, transactionID string, result models.TransactionResult) error
}

// Tx exposes the repositories bound to one atomic unit.
type Tx interface {
	Users() UserDirectory
	Accounts() AccountRepository
	Transactions() TransactionRepository
}

// Store runs fn as one atomic unit: every write made through tx becomes
// visible together when fn returns nil, and none does otherwise.
type Store interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// PasswordVerifier compares a plaintext password with a stored hash.
type PasswordVerifier interface {
	Matches(plaintext, hash string) bool
}

// PasswordVerifierFunc adapts a function to PasswordVerifier.
type PasswordVerifierFunc func(plaintext, hash string) bool

func (f PasswordVerifierFunc) Matches(plaintext, hash string) bool { return f(plaintext, hash) }

// Locker serializes a critical section across every process sharing the
// same backing store.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
