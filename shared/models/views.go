package models

import "time"

// UserView is the read-optimised projection of a user.
// It never exposes PasswordHash.
type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	BirthDate string    `json:"birthDate"`
	CreatedAt time.Time `json:"createdTimestamp"`
}

// AccountView is the read-optimised projection of an account.
// UserID is populated for ownership checks but never serialised to the API response.
type AccountView struct {
	AccountNumber  string        `json:"accountNumber"`
	UserID         string        `json:"-"`
	Balance        int64         `json:"balance"`
	Status         AccountStatus `json:"status"`
	RegisteredAt   time.Time     `json:"registeredTimestamp"`
	UnregisteredAt *time.Time    `json:"unregisteredTimestamp,omitempty"`
}

// TransactionView is the read-optimised projection of a transaction.
// UserID is populated for ownership checks but never serialised to the API response.
type TransactionView struct {
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

func NewAccountView(a *Account) *AccountView {
	return &AccountView{
		AccountNumber:  a.AccountNumber,
		UserID:         a.UserID,
		Balance:        a.Balance,
		Status:         a.Status,
		RegisteredAt:   a.RegisteredAt,
		UnregisteredAt: a.UnregisteredAt,
	}
}

func NewTransactionView(t *Transaction) *TransactionView {
	return &TransactionView{
		TransactionID:             t.TransactionID,
		UserID:                    t.UserID,
		AccountNumber:             t.AccountNumber,
		Type:                      t.Type,
		Result:                    t.Result,
		CounterpartyAccountNumber: t.CounterpartyAccountNumber,
		CounterpartyName:          t.CounterpartyName,
		Amount:                    t.Amount,
		BalanceSnapshot:           t.BalanceSnapshot,
		TransactedAt:              t.TransactedAt,
	}
}

func NewUserView(u *User) *UserView {
	return &UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		BirthDate: u.BirthDate.Format("2006-01-02"),
		CreatedAt: u.CreatedAt,
	}
}
