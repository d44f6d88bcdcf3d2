package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/accountz/ledger-service/shared/cqrs"
	"github.com/accountz/ledger-service/shared/middleware"
	"github.com/accountz/ledger-service/shared/models"
	"github.com/accountz/ledger-service/shared/utils"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// TransactionCommander defines the write-side operations used by TransactionHandler.
type TransactionCommander interface {
	Deposit(context.Context, cqrs.DepositCommand) (*models.Transaction, error)
	Withdraw(context.Context, cqrs.WithdrawCommand) (*models.Transaction, error)
	Transfer(context.Context, cqrs.TransferCommand) (*models.Transaction, error)
	CancelTransaction(context.Context, cqrs.CancelTransactionCommand) (*models.Transaction, error)
}

// TransactionQuerier defines the read-side operations used by TransactionHandler.
type TransactionQuerier interface {
	GetTransaction(context.Context, cqrs.GetTransactionQuery) (*models.TransactionView, error)
	ListTransactions(context.Context, cqrs.ListTransactionsQuery) ([]models.TransactionView, error)
	ListReceived(context.Context, cqrs.ListReceivedTransactionsQuery) ([]models.TransactionView, error)
	ListByCounterparty(context.Context, cqrs.ListByCounterpartyQuery) ([]models.TransactionView, error)
	ListBetween(context.Context, cqrs.ListBetweenQuery) ([]models.TransactionView, error)
	ListFailed(context.Context, cqrs.ListFailedTransactionsQuery) ([]models.TransactionView, error)
}

// TransactionHandler handles money movement and transaction history requests.
type TransactionHandler struct {
	commands TransactionCommander
	queries  TransactionQuerier
}

// MovementRequest is the body of deposit and withdraw.
type MovementRequest struct {
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
	Amount        int64  `json:"amount" validate:"gte=1,lte=1000000000"`
}

type IdentityRequest struct {
	Name      string `json:"name" validate:"required,min=2"`
	BirthDate string `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

type TransferRequest struct {
	SenderAccountNumber   string           `json:"senderAccountNumber" validate:"required,len=10,numeric"`
	ReceiverAccountNumber string           `json:"receiverAccountNumber" validate:"required,len=10,numeric,nefield=SenderAccountNumber"`
	Amount                int64            `json:"amount" validate:"gte=1,lte=1000000000"`
	Identity              *IdentityRequest `json:"identity"`
}

type CancelRequest struct {
	TransactionID         string `json:"transactionId" validate:"required,len=32"`
	SenderAccountNumber   string `json:"senderAccountNumber" validate:"required,len=10,numeric"`
	ReceiverAccountNumber string `json:"receiverAccountNumber" validate:"required,len=10,numeric"`
	Amount                int64  `json:"amount" validate:"gte=1,lte=1000000000"`
}

type ListTransactionsResponse struct {
	Transactions []models.TransactionView `json:"transactions"`
}

func NewTransactionHandler(commands TransactionCommander, queries TransactionQuerier) *TransactionHandler {
	return &TransactionHandler{commands: commands, queries: queries}
}

func (h *TransactionHandler) Deposit(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	var req MovementRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.commands.Deposit(c.Request.Context(), cqrs.DepositCommand{
		UserID:        userID,
		AccountNumber: req.AccountNumber,
		Amount:        req.Amount,
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewTransactionView(txn))
}

func (h *TransactionHandler) Withdraw(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	var req MovementRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.commands.Withdraw(c.Request.Context(), cqrs.WithdrawCommand{
		UserID:        userID,
		AccountNumber: req.AccountNumber,
		Amount:        req.Amount,
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewTransactionView(txn))
}

func (h *TransactionHandler) Transfer(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	var req TransferRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := cqrs.TransferCommand{
		UserID:                userID,
		SenderAccountNumber:   req.SenderAccountNumber,
		ReceiverAccountNumber: req.ReceiverAccountNumber,
		Amount:                req.Amount,
	}
	if req.Identity != nil {
		// Already validated against dateLayout.
		birthDate, _ := time.Parse(dateLayout, req.Identity.BirthDate)
		cmd.Identity = &cqrs.IdentityProof{
			Name:      req.Identity.Name,
			BirthDate: birthDate,
			Email:     req.Identity.Email,
			Password:  req.Identity.Password,
		}
	}

	txn, err := h.commands.Transfer(c.Request.Context(), cmd)
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewTransactionView(txn))
}

func (h *TransactionHandler) CancelTransaction(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	var req CancelRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.commands.CancelTransaction(c.Request.Context(), cqrs.CancelTransactionCommand{
		UserID:                userID,
		TransactionID:         req.TransactionID,
		SenderAccountNumber:   req.SenderAccountNumber,
		ReceiverAccountNumber: req.ReceiverAccountNumber,
		Amount:                req.Amount,
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewTransactionView(txn))
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	transactionID := c.Param("transactionId")
	if !utils.ValidateTransactionID(transactionID) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid transaction ID")
		return
	}
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetTransaction(c.Request.Context(), cqrs.GetTransactionQuery{
		TransactionID: transactionID,
		UserID:        userID,
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	respondWithList(c)(h.queries.ListTransactions(c.Request.Context(), cqrs.ListTransactionsQuery{UserID: userID}))
}

func (h *TransactionHandler) ListFailed(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	respondWithList(c)(h.queries.ListFailed(c.Request.Context(), cqrs.ListFailedTransactionsQuery{UserID: userID}))
}

func (h *TransactionHandler) ListByCounterparty(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	respondWithList(c)(h.queries.ListByCounterparty(c.Request.Context(), cqrs.ListByCounterpartyQuery{UserID: userID}))
}

// ListBetween expects ?from=YYYY-MM-DD&to=YYYY-MM-DD; both days are included.
func (h *TransactionHandler) ListBetween(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	from, errFrom := time.Parse(dateLayout, c.Query("from"))
	to, errTo := time.Parse(dateLayout, c.Query("to"))
	if errFrom != nil || errTo != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "from and to must use the format "+dateLayout)
		return
	}

	respondWithList(c)(h.queries.ListBetween(c.Request.Context(), cqrs.ListBetweenQuery{
		UserID: userID,
		From:   from,
		To:     to,
	}))
}

func (h *TransactionHandler) ListReceived(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	if !utils.ValidateAccountNumber(accountNumber) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid account number")
		return
	}
	userID, _ := middleware.GetUserID(c)

	respondWithList(c)(h.queries.ListReceived(c.Request.Context(), cqrs.ListReceivedTransactionsQuery{
		AccountNumber: accountNumber,
		UserID:        userID,
	}))
}

func respondWithList(c *gin.Context) func([]models.TransactionView, error) {
	return func(views []models.TransactionView, err error) {
		if err != nil {
			respondWithLedgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, ListTransactionsResponse{Transactions: views})
	}
}
