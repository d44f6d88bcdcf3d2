package ledger

import "github.com/accountz/ledger-service/shared/models"

// Credit adds amount to the account balance and returns the new balance.
func Credit(a *models.Account, amount int64) (int64, error) {
	if amount < 0 {
		return a.Balance, ErrInvalidAmount
	}
	a.Balance += amount
	return a.Balance, nil
}

// Debit removes amount from the account balance and returns the new balance.
// The balance never goes below zero.
func Debit(a *models.Account, amount int64) (int64, error) {
	if amount < 0 {
		return a.Balance, ErrInvalidAmount
	}
	if amount > a.Balance {
		return a.Balance, ErrInsufficientBalance
	}
	a.Balance -= amount
	return a.Balance, nil
}

// ReverseCredit undoes an earlier Credit of amount.
func ReverseCredit(a *models.Account, amount int64) (int64, error) {
	return Debit(a, amount)
}

// ReverseDebit undoes an earlier Debit of amount.
func ReverseDebit(a *models.Account, amount int64) (int64, error) {
	return Credit(a, amount)
}
