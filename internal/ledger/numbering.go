package ledger

import (
	"context"
	"fmt"

	"github.com/accountz/ledger-service/shared/utils"
)

// FirstAccountNumber seeds the sequence when no account exists yet.
const FirstAccountNumber = "1000000000"

// AccountNumberAllocator hands out account numbers from one logical sequence.
// Allocate runs inside the atomic unit that inserts the account, under the
// registry's allocation lock.
type AccountNumberAllocator interface {
	Allocate(ctx context.Context, accounts AccountRepository) (string, error)
}

// SequentialAllocator allocates the highest existing number plus one.
type SequentialAllocator struct{}

func (SequentialAllocator) Allocate(ctx context.Context, accounts AccountRepository) (string, error) {
	highest, err := accounts.HighestAccountNumber(ctx)
	if err != nil {
		return "", Persistence(err)
	}
	if highest == "" {
		return FirstAccountNumber, nil
	}
	n, err := utils.ParseAccountNumber(highest)
	if err != nil {
		return "", Persistence(fmt.Errorf("corrupt account number sequence: %w", err))
	}
	return utils.FormatAccountNumber(n + 1), nil
}
