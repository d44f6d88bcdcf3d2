// Package ledger holds the account and transaction consistency rules:
// account lifecycle, balance mutation, transaction recording, transfers and
// cancellations. Storage is reached only through the capabilities in store.go.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/accountz/ledger-service/shared/models"
	"github.com/accountz/ledger-service/shared/utils"
	"go.uber.org/zap"
)

const (
	// DefaultLargeTransferThreshold is the amount at and above which a
	// transfer requires the sender to re-verify their identity.
	DefaultLargeTransferThreshold int64 = 1_000_000
	// MaxAccountsPerOwner counts every account ever opened, closed ones included.
	MaxAccountsPerOwner = 5
	// CancellationWindow is how old a transaction may be and still be cancelled.
	CancellationWindow = 365 * 24 * time.Hour
)

// Caller identifies the user on whose behalf an operation runs.
type Caller struct {
	UserID string
}

type Config struct {
	LargeTransferThreshold int64
	Allocator              AccountNumberAllocator
	Locker                 Locker
	Verifier               PasswordVerifier
	Now                    func() time.Time
	Logger                 *zap.Logger
}

// Ledger is the entry point for every balance-affecting operation.
type Ledger struct {
	store     Store
	recorder  *Recorder
	allocator AccountNumberAllocator
	locker    Locker
	verifier  PasswordVerifier
	threshold int64
	now       func() time.Time
	logger    *zap.Logger
}

func New(store Store, cfg Config) *Ledger {
	if cfg.LargeTransferThreshold <= 0 {
		cfg.LargeTransferThreshold = DefaultLargeTransferThreshold
	}
	if cfg.Allocator == nil {
		cfg.Allocator = SequentialAllocator{}
	}
	if cfg.Locker == nil {
		cfg.Locker = NewLocalLocker()
	}
	if cfg.Verifier == nil {
		cfg.Verifier = PasswordVerifierFunc(utils.CheckPassword)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Ledger{
		store:     store,
		recorder:  NewRecorder(cfg.Now),
		allocator: cfg.Allocator,
		locker:    cfg.Locker,
		verifier:  cfg.Verifier,
		threshold: cfg.LargeTransferThreshold,
		now:       cfg.Now,
		logger:    cfg.Logger,
	}
}

// LargeTransferThreshold returns the amount at which transfers need identity verification.
func (l *Ledger) LargeTransferThreshold() int64 { return l.threshold }

// RequiresVerification reports whether a transfer of amount falls in the verified tier.
func (l *Ledger) RequiresVerification(amount int64) bool {
	return amount >= l.threshold
}

func (l *Ledger) getUser(ctx context.Context, tx Tx, id string, notFound *Error) (*models.User, error) {
	user, err := tx.Users().GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, Persistence(err)
	}
	return user, nil
}

// lockAccounts locks the given accounts and returns them in argument order.
// The first missing account, in argument order, is reported.
func (l *Ledger) lockAccounts(ctx context.Context, tx Tx, numbers ...string) ([]*models.Account, error) {
	locked, err := tx.Accounts().Lock(ctx, numbers...)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, Persistence(err)
	}
	out := make([]*models.Account, len(numbers))
	for i, n := range numbers {
		a, ok := locked[n]
		if !ok {
			return nil, ErrAccountNotFound
		}
		out[i] = a
	}
	return out, nil
}

func (l *Ledger) getAccount(ctx context.Context, tx Tx, number string) (*models.Account, error) {
	account, err := tx.Accounts().Get(ctx, number)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, Persistence(err)
	}
	return account, nil
}

func (l *Ledger) saveAccounts(ctx context.Context, tx Tx, accounts ...*models.Account) error {
	for _, a := range accounts {
		if err := tx.Accounts().Save(ctx, a); err != nil {
			return Persistence(err)
		}
	}
	return nil
}

// LocalLocker serializes critical sections within one process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}
