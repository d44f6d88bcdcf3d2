// Package memory keeps users, accounts and transactions in process. It
// implements the same capabilities as the Postgres repositories and is used
// by tests and by the service when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/shared/models"
)

// Store is the committed state. Atomic units stage their writes and apply
// them under mu when fn succeeds.
type Store struct {
	mu           sync.RWMutex
	users        map[string]*models.User
	userByEmail  map[string]string
	accounts     map[string]*models.Account
	transactions map[string]*models.Transaction
	// order keeps insertion order so listings are stable for equal timestamps.
	order []string

	locksMu      sync.Mutex
	accountLocks map[string]*sync.Mutex

	processedMu sync.Mutex
	processed   map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]*models.User),
		userByEmail:  make(map[string]string),
		accounts:     make(map[string]*models.Account),
		transactions: make(map[string]*models.Transaction),
		accountLocks: make(map[string]*sync.Mutex),
		processed:    make(map[string]struct{}),
	}
}

func (s *Store) getAccountLock(accountNumber string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.accountLocks[accountNumber]
	if !ok {
		m = &sync.Mutex{}
		s.accountLocks[accountNumber] = m
	}
	return m
}

// Atomic runs fn against a unit that sees committed state plus its own
// staged writes. Account locks taken through Lock are held until the unit
// has committed or been discarded.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u := newUnit(s)
	defer u.release()

	if err := fn(ctx, u); err != nil {
		return err
	}
	return s.commit(u)
}

func (s *Store) commit(u *unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, number := range u.newAccounts {
		if _, exists := s.accounts[number]; exists {
			return fmt.Errorf("account %s: %w", number, ledger.ErrDuplicate)
		}
	}
	for _, id := range u.newUsers {
		email := u.users[id].Email
		if _, exists := s.userByEmail[email]; exists {
			return fmt.Errorf("email %s: %w", email, ledger.ErrDuplicate)
		}
	}
	for _, id := range u.newTxns {
		if _, exists := s.transactions[id]; exists {
			return fmt.Errorf("transaction %s: %w", id, ledger.ErrDuplicate)
		}
	}

	for id, user := range u.users {
		s.users[id] = user
		s.userByEmail[user.Email] = id
	}
	for number, account := range u.accounts {
		s.accounts[number] = account
	}
	for id, txn := range u.txns {
		s.transactions[id] = txn
	}
	s.order = append(s.order, u.newTxns...)
	return nil
}

// SeedUser inserts a user directly into committed state.
func (s *Store) SeedUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[cp.ID] = &cp
	s.userByEmail[cp.Email] = cp.ID
}

// SeedAccount inserts or replaces an account directly in committed state.
func (s *Store) SeedAccount(account *models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.AccountNumber] = copyAccount(account)
}

// SeedTransaction inserts a transaction directly into committed state.
func (s *Store) SeedTransaction(txn *models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *txn
	if _, exists := s.transactions[cp.TransactionID]; !exists {
		s.order = append(s.order, cp.TransactionID)
	}
	s.transactions[cp.TransactionID] = &cp
}

// Account returns a copy of the committed account, or nil.
func (s *Store) Account(accountNumber string) *models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountNumber]
	if !ok {
		return nil
	}
	return copyAccount(a)
}

// Transaction returns a copy of the committed transaction, or nil.
func (s *Store) Transaction(transactionID string) *models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[transactionID]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

// Transactions returns copies of every committed transaction in insertion order.
func (s *Store) Transactions() []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Transaction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.transactions[id])
	}
	return out
}

func copyAccount(a *models.Account) *models.Account {
	cp := *a
	if a.UnregisteredAt != nil {
		t := *a.UnregisteredAt
		cp.UnregisteredAt = &t
	}
	return &cp
}

// unit is one atomic unit of work. It implements ledger.Tx and the three
// repositories at once.
type unit struct {
	s *Store

	users    map[string]*models.User
	accounts map[string]*models.Account
	txns     map[string]*models.Transaction

	newUsers    []string
	newAccounts []string
	newTxns     []string

	held map[string]*sync.Mutex
}

func newUnit(s *Store) *unit {
	return &unit{
		s:        s,
		users:    make(map[string]*models.User),
		accounts: make(map[string]*models.Account),
		txns:     make(map[string]*models.Transaction),
		held:     make(map[string]*sync.Mutex),
	}
}

func (u *unit) release() {
	for _, m := range u.held {
		m.Unlock()
	}
	u.held = nil
}

func (u *unit) Users() ledger.UserDirectory                { return unitUsers{u} }
func (u *unit) Accounts() ledger.AccountRepository         { return unitAccounts{u} }
func (u *unit) Transactions() ledger.TransactionRepository { return unitTransactions{u} }

type unitUsers struct{ u *unit }

func (r unitUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := r.u.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	user, ok := r.u.s.users[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (r unitUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.u.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	r.u.s.mu.RLock()
	id, ok := r.u.s.userByEmail[email]
	r.u.s.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r unitUsers) Create(ctx context.Context, user *models.User) error {
	if _, err := r.GetByEmail(ctx, user.Email); err == nil {
		return fmt.Errorf("email %s: %w", user.Email, ledger.ErrDuplicate)
	}
	cp := *user
	r.u.users[cp.ID] = &cp
	r.u.newUsers = append(r.u.newUsers, cp.ID)
	return nil
}

type unitAccounts struct{ u *unit }

// Lock acquires the per-account mutexes in ascending account number order
// and stages a private copy of each account.
func (r unitAccounts) Lock(ctx context.Context, accountNumbers ...string) (map[string]*models.Account, error) {
	numbers := make([]string, 0, len(accountNumbers))
	seen := make(map[string]bool, len(accountNumbers))
	for _, n := range accountNumbers {
		if !seen[n] {
			seen[n] = true
			numbers = append(numbers, n)
		}
	}
	sort.Strings(numbers)

	out := make(map[string]*models.Account, len(numbers))
	var missing bool
	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := r.u.held[n]; !ok {
			m := r.u.s.getAccountLock(n)
			m.Lock()
			r.u.held[n] = m
		}
		a, err := r.Get(ctx, n)
		if err != nil {
			missing = true
			continue
		}
		r.u.accounts[n] = a
		out[n] = a
	}
	if missing {
		return out, ledger.ErrNotFound
	}
	return out, nil
}

func (r unitAccounts) Get(_ context.Context, accountNumber string) (*models.Account, error) {
	if a, ok := r.u.accounts[accountNumber]; ok {
		return a, nil
	}
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	a, ok := r.u.s.accounts[accountNumber]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return copyAccount(a), nil
}

func (r unitAccounts) Create(ctx context.Context, account *models.Account) error {
	if _, err := r.Get(ctx, account.AccountNumber); err == nil {
		return fmt.Errorf("account %s: %w", account.AccountNumber, ledger.ErrDuplicate)
	}
	r.u.accounts[account.AccountNumber] = copyAccount(account)
	r.u.newAccounts = append(r.u.newAccounts, account.AccountNumber)
	return nil
}

func (r unitAccounts) Save(ctx context.Context, account *models.Account) error {
	if _, err := r.Get(ctx, account.AccountNumber); err != nil {
		return err
	}
	r.u.accounts[account.AccountNumber] = copyAccount(account)
	return nil
}

func (r unitAccounts) CountByUserID(_ context.Context, userID string) (int, error) {
	count := 0
	for _, number := range r.u.newAccounts {
		if r.u.accounts[number].UserID == userID {
			count++
		}
	}
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	for _, a := range r.u.s.accounts {
		if a.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r unitAccounts) HighestAccountNumber(_ context.Context) (string, error) {
	highest := ""
	for _, number := range r.u.newAccounts {
		if number > highest {
			highest = number
		}
	}
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	for number := range r.u.s.accounts {
		if number > highest {
			highest = number
		}
	}
	return highest, nil
}

type unitTransactions struct{ u *unit }

func (r unitTransactions) Create(ctx context.Context, txn *models.Transaction) error {
	if _, err := r.GetByTransactionID(ctx, txn.TransactionID); err == nil {
		return fmt.Errorf("transaction %s: %w", txn.TransactionID, ledger.ErrDuplicate)
	}
	cp := *txn
	r.u.txns[cp.TransactionID] = &cp
	r.u.newTxns = append(r.u.newTxns, cp.TransactionID)
	return nil
}

func (r unitTransactions) GetByTransactionID(_ context.Context, transactionID string) (*models.Transaction, error) {
	if t, ok := r.u.txns[transactionID]; ok {
		cp := *t
		return &cp, nil
	}
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	t, ok := r.u.s.transactions[transactionID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// UpdateResult stages the SUCCESS -> EXPIRED_AFTER_SUCCESS transition.
func (r unitTransactions) UpdateResult(ctx context.Context, transactionID string, result models.TransactionResult) error {
	t, err := r.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return err
	}
	if t.Result != models.ResultSuccess {
		return fmt.Errorf("transaction %s is %s: %w", transactionID, t.Result, ledger.ErrNotFound)
	}
	t.Result = result
	r.u.txns[transactionID] = t
	return nil
}
