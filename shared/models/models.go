package models

import "time"

type AccountStatus string

const (
	AccountActive       AccountStatus = "ACTIVE"
	AccountUnregistered AccountStatus = "UNREGISTERED"
)

type TransactionType string

const (
	TransactionUse    TransactionType = "USE"
	TransactionCancel TransactionType = "CANCEL"
)

type TransactionResult string

const (
	ResultSuccess             TransactionResult = "SUCCESS"
	ResultFail                TransactionResult = "FAIL"
	ResultExpiredAfterSuccess TransactionResult = "EXPIRED_AFTER_SUCCESS"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	BirthDate    time.Time `json:"birthDate"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdTimestamp"`
	UpdatedAt    time.Time `json:"updatedTimestamp"`
}

// Account balances are held in minor currency units and never go negative.
// Only the ledger balance functions change Balance.
type Account struct {
	ID             string        `json:"id"`
	UserID         string        `json:"-"`
	AccountNumber  string        `json:"accountNumber"`
	Balance        int64         `json:"balance"`
	Status         AccountStatus `json:"status"`
	RegisteredAt   time.Time     `json:"registeredTimestamp"`
	UnregisteredAt *time.Time    `json:"unregisteredTimestamp,omitempty"`
}

// IsActive reports whether the account can still send or receive money.
func (a *Account) IsActive() bool {
	return a.Status == AccountActive
}

// Transaction is an append-only record of one attempted money movement.
// The only mutation ever applied after insert is SUCCESS -> EXPIRED_AFTER_SUCCESS.
type Transaction struct {
	ID                        string            `json:"-"`
	TransactionID             string            `json:"transactionId"`
	UserID                    string            `json:"-"`
	AccountNumber             string            `json:"accountNumber"`
	Type                      TransactionType   `json:"type"`
	Result                    TransactionResult `json:"result"`
	CounterpartyAccountNumber string            `json:"counterpartyAccountNumber,omitempty"`
	CounterpartyName          string            `json:"counterpartyName,omitempty"`
	Amount                    int64             `json:"amount"`
	BalanceSnapshot           int64             `json:"balanceSnapshot"`
	TransactedAt              time.Time         `json:"transactedTimestamp"`
}
