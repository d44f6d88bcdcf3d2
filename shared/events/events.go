package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	UserRegistered = "user.registered"

	AccountCreated = "account.created"
	AccountClosed  = "account.closed"

	TransactionSucceeded = "transaction.succeeded"
	TransactionFailed    = "transaction.failed"
	TransactionCancelled = "transaction.cancelled"
)

// Stream names
const (
	UserEventsStream        = "ledger.users"
	AccountEventsStream     = "ledger.accounts"
	TransactionEventsStream = "ledger.transactions"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Decode converts the loosely typed Data of a received event into v.
func (e Event) Decode(v any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", e.Type, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}

// User events
type UserRegisteredEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Account events
type AccountCreatedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
}

type AccountClosedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
}

// TransactionEvent is published for every recorded money movement, whatever
// its result. AccountNumbers lists every account whose balance may have changed.
type TransactionEvent struct {
	TransactionID             string   `json:"transactionId"`
	UserID                    string   `json:"userId"`
	AccountNumber             string   `json:"accountNumber"`
	CounterpartyAccountNumber string   `json:"counterpartyAccountNumber"`
	Type                      string   `json:"type"`
	Result                    string   `json:"result"`
	Amount                    int64    `json:"amount"`
	BalanceSnapshot           int64    `json:"balanceSnapshot"`
	AccountNumbers            []string `json:"accountNumbers"`
}

type TransactionCancelledEvent struct {
	TransactionEvent
	CancelledTransactionID string `json:"cancelledTransactionId"`
}
