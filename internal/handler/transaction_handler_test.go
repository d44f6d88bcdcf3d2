package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/shared/cqrs"
	"github.com/accountz/ledger-service/shared/models"
	"github.com/gin-gonic/gin"
)

// ---- mock implementations ----

type mockTransactionCommander struct {
	depositFn  func(cqrs.DepositCommand) (*models.Transaction, error)
	withdrawFn func(cqrs.WithdrawCommand) (*models.Transaction, error)
	transferFn func(cqrs.TransferCommand) (*models.Transaction, error)
	cancelFn   func(cqrs.CancelTransactionCommand) (*models.Transaction, error)
}

func (m *mockTransactionCommander) Deposit(_ context.Context, cmd cqrs.DepositCommand) (*models.Transaction, error) {
	if m.depositFn != nil {
		return m.depositFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionCommander) Withdraw(_ context.Context, cmd cqrs.WithdrawCommand) (*models.Transaction, error) {
	if m.withdrawFn != nil {
		return m.withdrawFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionCommander) Transfer(_ context.Context, cmd cqrs.TransferCommand) (*models.Transaction, error) {
	if m.transferFn != nil {
		return m.transferFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionCommander) CancelTransaction(_ context.Context, cmd cqrs.CancelTransactionCommand) (*models.Transaction, error) {
	if m.cancelFn != nil {
		return m.cancelFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockTransactionQuerier struct {
	getFn            func(cqrs.GetTransactionQuery) (*models.TransactionView, error)
	listFn           func(cqrs.ListTransactionsQuery) ([]models.TransactionView, error)
	receivedFn       func(cqrs.ListReceivedTransactionsQuery) ([]models.TransactionView, error)
	byCounterpartyFn func(cqrs.ListByCounterpartyQuery) ([]models.TransactionView, error)
	betweenFn        func(cqrs.ListBetweenQuery) ([]models.TransactionView, error)
	failedFn         func(cqrs.ListFailedTransactionsQuery) ([]models.TransactionView, error)
}

func (m *mockTransactionQuerier) GetTransaction(_ context.Context, q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionQuerier) ListTransactions(_ context.Context, q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionQuerier) ListReceived(_ context.Context, q cqrs.ListReceivedTransactionsQuery) ([]models.TransactionView, error) {
	if m.receivedFn != nil {
		return m.receivedFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionQuerier) ListByCounterparty(_ context.Context, q cqrs.ListByCounterpartyQuery) ([]models.TransactionView, error) {
	if m.byCounterpartyFn != nil {
		return m.byCounterpartyFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionQuerier) ListBetween(_ context.Context, q cqrs.ListBetweenQuery) ([]models.TransactionView, error) {
	if m.betweenFn != nil {
		return m.betweenFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockTransactionQuerier) ListFailed(_ context.Context, q cqrs.ListFailedTransactionsQuery) ([]models.TransactionView, error) {
	if m.failedFn != nil {
		return m.failedFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func newTransactionTestRouter(cmds TransactionCommander, qrys TransactionQuerier, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := Handlers{
		Users:        NewUserHandler(&mockUserCommander{}, &mockUserQuerier{}),
		Auth:         NewAuthHandler(&mockAuthQuerier{}),
		Accounts:     NewAccountHandler(&mockAccountCommander{}, &mockAccountQuerier{}),
		Transactions: NewTransactionHandler(cmds, qrys),
	}
	RegisterRoutes(r, h, fakeAuth(authUserID))
	return r
}

// ---- test data ----

const testTransactionID = "0f8fad5bd9cb469fa16570867728950e"

var aTestTransaction = &models.Transaction{
	TransactionID:             testTransactionID,
	UserID:                    "usr-001",
	AccountNumber:             "1000000000",
	Type:                      models.TransactionUse,
	Result:                    models.ResultSuccess,
	CounterpartyAccountNumber: "1000000001",
	CounterpartyName:          "Bob",
	Amount:                    500,
	BalanceSnapshot:           1500,
	TransactedAt:              time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
}

// ---- tests ----

func TestDeposit(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		depositFn      func(cqrs.DepositCommand) (*models.Transaction, error)
		expectedStatus int
	}{
		{
			name: "success - deposit into own account",
			body: map[string]interface{}{"accountNumber": "1000000000", "amount": 500},
			depositFn: func(cmd cqrs.DepositCommand) (*models.Transaction, error) {
				if cmd.UserID != "usr-001" || cmd.Amount != 500 {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return aTestTransaction, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - zero amount",
			body:           map[string]interface{}{"accountNumber": "1000000000", "amount": 0},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - amount above limit",
			body:           map[string]interface{}{"accountNumber": "1000000000", "amount": 1000000001},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed account number",
			body:           map[string]interface{}{"accountNumber": "10000", "amount": 500},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "forbidden - not the owner",
			body:           map[string]interface{}{"accountNumber": "1000000009", "amount": 500},
			depositFn:      func(cqrs.DepositCommand) (*models.Transaction, error) { return nil, ledger.ErrOwnershipMismatch },
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "conflict - account closed",
			body:           map[string]interface{}{"accountNumber": "1000000000", "amount": 500},
			depositFn:      func(cqrs.DepositCommand) (*models.Transaction, error) { return nil, ledger.ErrAlreadyClosed },
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTransactionTestRouter(&mockTransactionCommander{depositFn: tt.depositFn}, &mockTransactionQuerier{}, "usr-001")
			w := doRequest(router, http.MethodPost, "/v1/transactions/deposit", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	withdrawFn := func(cqrs.WithdrawCommand) (*models.Transaction, error) { return nil, ledger.ErrInsufficientBalance }
	router := newTransactionTestRouter(&mockTransactionCommander{withdrawFn: withdrawFn}, &mockTransactionQuerier{}, "usr-001")
	w := doRequest(router, http.MethodPost, "/v1/transactions/withdraw", map[string]interface{}{"accountNumber": "1000000000", "amount": 500})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d; body: %s", w.Code, w.Body.String())
	}
	if got := decodeError(t, w); got.Code != "INSUFFICIENT_BALANCE" {
		t.Errorf("expected INSUFFICIENT_BALANCE got %+v", got)
	}
}

func TestTransfer(t *testing.T) {
	identity := map[string]interface{}{
		"name": "Alice", "birthDate": "1990-01-15", "email": "alice@example.com", "password": "password123",
	}
	tests := []struct {
		name           string
		body           interface{}
		transferFn     func(cqrs.TransferCommand) (*models.Transaction, error)
		expectedStatus int
	}{
		{
			name: "success - simple transfer",
			body: map[string]interface{}{"senderAccountNumber": "1000000000", "receiverAccountNumber": "1000000001", "amount": 500},
			transferFn: func(cmd cqrs.TransferCommand) (*models.Transaction, error) {
				if cmd.Identity != nil {
					return nil, fmt.Errorf("identity should be absent")
				}
				return aTestTransaction, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "success - verified transfer carries identity",
			body: map[string]interface{}{"senderAccountNumber": "1000000000", "receiverAccountNumber": "1000000001", "amount": 2000000, "identity": identity},
			transferFn: func(cmd cqrs.TransferCommand) (*models.Transaction, error) {
				if cmd.Identity == nil || cmd.Identity.Name != "Alice" {
					return nil, fmt.Errorf("identity missing")
				}
				if !cmd.Identity.BirthDate.Equal(time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC)) {
					return nil, fmt.Errorf("unexpected birth date %v", cmd.Identity.BirthDate)
				}
				return aTestTransaction, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - same sender and receiver",
			body:           map[string]interface{}{"senderAccountNumber": "1000000000", "receiverAccountNumber": "1000000000", "amount": 500},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - malformed identity birth date",
			body: map[string]interface{}{"senderAccountNumber": "1000000000", "receiverAccountNumber": "1000000001", "amount": 2000000,
				"identity": map[string]interface{}{"name": "Alice", "birthDate": "15/01/1990", "email": "alice@example.com", "password": "password123"}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "forbidden - password mismatch",
			body:           map[string]interface{}{"senderAccountNumber": "1000000000", "receiverAccountNumber": "1000000001", "amount": 2000000, "identity": identity},
			transferFn:     func(cqrs.TransferCommand) (*models.Transaction, error) { return nil, ledger.ErrPasswordMismatch },
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "conflict - receiver inactive",
			body:           map[string]interface{}{"senderAccountNumber": "1000000000", "receiverAccountNumber": "1000000001", "amount": 500},
			transferFn:     func(cqrs.TransferCommand) (*models.Transaction, error) { return nil, ledger.ErrReceiverInactive },
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTransactionTestRouter(&mockTransactionCommander{transferFn: tt.transferFn}, &mockTransactionQuerier{}, "usr-001")
			w := doRequest(router, http.MethodPost, "/v1/transactions/transfer", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCancelTransaction(t *testing.T) {
	valid := map[string]interface{}{
		"transactionId": testTransactionID, "senderAccountNumber": "1000000000", "receiverAccountNumber": "1000000001", "amount": 500,
	}
	tests := []struct {
		name           string
		body           interface{}
		cancelFn       func(cqrs.CancelTransactionCommand) (*models.Transaction, error)
		expectedStatus int
	}{
		{
			name: "success - full cancel",
			body: valid,
			cancelFn: func(cmd cqrs.CancelTransactionCommand) (*models.Transaction, error) {
				cancelled := *aTestTransaction
				cancelled.Type = models.TransactionCancel
				return &cancelled, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - short transaction id",
			body:           map[string]interface{}{"transactionId": "abc", "senderAccountNumber": "1000000000", "receiverAccountNumber": "1000000001", "amount": 500},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unprocessable - partial cancel",
			body: valid,
			cancelFn: func(cqrs.CancelTransactionCommand) (*models.Transaction, error) {
				return nil, ledger.ErrPartialCancelNotAllowed
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "conflict - already cancelled",
			body: valid,
			cancelFn: func(cqrs.CancelTransactionCommand) (*models.Transaction, error) {
				return nil, ledger.ErrAlreadyCancelled
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "not found - unknown transaction",
			body: valid,
			cancelFn: func(cqrs.CancelTransactionCommand) (*models.Transaction, error) {
				return nil, ledger.ErrTransactionNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTransactionTestRouter(&mockTransactionCommander{cancelFn: tt.cancelFn}, &mockTransactionQuerier{}, "usr-001")
			w := doRequest(router, http.MethodPost, "/v1/transactions/cancel", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetTransaction(t *testing.T) {
	view := models.NewTransactionView(aTestTransaction)
	tests := []struct {
		name           string
		transactionID  string
		getFn          func(cqrs.GetTransactionQuery) (*models.TransactionView, error)
		expectedStatus int
	}{
		{
			name:           "success",
			transactionID:  testTransactionID,
			getFn:          func(cqrs.GetTransactionQuery) (*models.TransactionView, error) { return view, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "forbidden - another user's transaction",
			transactionID:  testTransactionID,
			getFn:          func(cqrs.GetTransactionQuery) (*models.TransactionView, error) { return nil, ledger.ErrForbidden },
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "bad request - malformed id",
			transactionID:  "not-a-transaction-id",
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTransactionTestRouter(&mockTransactionCommander{}, &mockTransactionQuerier{getFn: tt.getFn}, "usr-001")
			w := doRequest(router, http.MethodGet, "/v1/transactions/"+tt.transactionID, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListRoutes(t *testing.T) {
	views := []models.TransactionView{*models.NewTransactionView(aTestTransaction)}
	qrys := &mockTransactionQuerier{
		listFn:           func(cqrs.ListTransactionsQuery) ([]models.TransactionView, error) { return views, nil },
		failedFn:         func(cqrs.ListFailedTransactionsQuery) ([]models.TransactionView, error) { return views, nil },
		byCounterpartyFn: func(cqrs.ListByCounterpartyQuery) ([]models.TransactionView, error) { return views, nil },
		receivedFn: func(q cqrs.ListReceivedTransactionsQuery) ([]models.TransactionView, error) {
			if q.AccountNumber != "1000000001" {
				return nil, ledger.ErrAccountNotFound
			}
			return views, nil
		},
		betweenFn: func(q cqrs.ListBetweenQuery) ([]models.TransactionView, error) {
			if q.From.After(q.To) {
				return nil, ledger.ErrInvalidDateRange
			}
			return views, nil
		},
	}
	router := newTransactionTestRouter(&mockTransactionCommander{}, qrys, "usr-001")

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{"/v1/transactions", http.StatusOK},
		{"/v1/transactions/failed", http.StatusOK},
		{"/v1/transactions/by-counterparty", http.StatusOK},
		{"/v1/transactions/between?from=2024-01-01&to=2024-06-30", http.StatusOK},
		{"/v1/transactions/between?from=2024-06-30&to=2024-01-01", http.StatusUnprocessableEntity},
		{"/v1/transactions/between?from=01/01/2024&to=2024-06-30", http.StatusBadRequest},
		{"/v1/transactions/between", http.StatusBadRequest},
		{"/v1/accounts/1000000001/received", http.StatusOK},
		{"/v1/accounts/1000000002/received", http.StatusNotFound},
		{"/v1/accounts/12/received", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := doRequest(router, http.MethodGet, tt.path, nil)
		if w.Code != tt.expectedStatus {
			t.Errorf("%s: expected %d got %d; body: %s", tt.path, tt.expectedStatus, w.Code, w.Body.String())
			continue
		}
		if tt.expectedStatus == http.StatusOK {
			var resp ListTransactionsResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || len(resp.Transactions) != 1 {
				t.Errorf("%s: unexpected body %s", tt.path, w.Body.String())
			}
		}
	}
}
