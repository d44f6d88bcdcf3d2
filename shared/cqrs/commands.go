package cqrs

import "time"

type CreateUserCommand struct {
	Name      string
	Email     string
	Password  string
	BirthDate time.Time
}

type CreateAccountCommand struct {
	UserID string
}

type CloseAccountCommand struct {
	AccountNumber    string
	RequestingUserID string
}

// DepositCommand and WithdrawCommand move money in or out of one of the
// requesting user's own accounts.
type DepositCommand struct {
	UserID        string
	AccountNumber string
	Amount        int64
}

type WithdrawCommand struct {
	UserID        string
	AccountNumber string
	Amount        int64
}

// IdentityProof re-authenticates the sender of a large transfer.
type IdentityProof struct {
	Name      string
	BirthDate time.Time
	Email     string
	Password  string
}

type TransferCommand struct {
	UserID                string
	SenderAccountNumber   string
	ReceiverAccountNumber string
	Amount                int64
	Identity              *IdentityProof
}

type CancelTransactionCommand struct {
	UserID                string
	TransactionID         string
	SenderAccountNumber   string
	ReceiverAccountNumber string
	Amount                int64
}

type LoginCommand struct {
	Email    string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}
