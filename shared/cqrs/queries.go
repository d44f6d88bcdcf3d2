package cqrs

import "time"

// ---------- User queries ----------

// GetUserQuery fetches a single user by ID, subject to ownership check.
type GetUserQuery struct {
	UserID           string
	RequestingUserID string
}

// ---------- Account queries ----------

// GetAccountQuery fetches a single account by account number.
type GetAccountQuery struct {
	AccountNumber    string
	RequestingUserID string
}

// ListAccountsQuery fetches all accounts belonging to a user.
type ListAccountsQuery struct {
	UserID string
}

// ---------- Transaction queries ----------

// GetTransactionQuery fetches a single transaction by its public identifier.
type GetTransactionQuery struct {
	TransactionID string
	UserID        string
}

// ListTransactionsQuery fetches every transaction a user originated, newest first.
type ListTransactionsQuery struct {
	UserID string
}

// ListReceivedTransactionsQuery fetches the transactions that paid into an account.
type ListReceivedTransactionsQuery struct {
	AccountNumber string
	UserID        string
}

// ListByCounterpartyQuery orders a user's transactions by counterparty name.
type ListByCounterpartyQuery struct {
	UserID string
}

// ListBetweenQuery covers whole days: From at 00:00 through the last second of To.
type ListBetweenQuery struct {
	UserID string
	From   time.Time
	To     time.Time
}

type ListFailedTransactionsQuery struct {
	UserID string
}
