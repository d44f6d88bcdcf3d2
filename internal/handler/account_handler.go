package handler

import (
	"context"
	"net/http"

	"github.com/accountz/ledger-service/shared/cqrs"
	"github.com/accountz/ledger-service/shared/middleware"
	"github.com/accountz/ledger-service/shared/models"
	"github.com/accountz/ledger-service/shared/utils"
	"github.com/gin-gonic/gin"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*models.Account, error)
	CloseAccount(context.Context, cqrs.CloseAccountCommand) (*models.Account, error)
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetAccount(context.Context, cqrs.GetAccountQuery) (*models.AccountView, error)
	ListAccounts(context.Context, cqrs.ListAccountsQuery) ([]models.AccountView, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

type ListAccountsResponse struct {
	Accounts []models.AccountView `json:"accounts"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	account, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{UserID: userID})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewAccountView(account))
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	views, err := h.queries.ListAccounts(c.Request.Context(), cqrs.ListAccountsQuery{UserID: userID})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListAccountsResponse{Accounts: views})
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	if !utils.ValidateAccountNumber(accountNumber) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid account number")
		return
	}
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{
		AccountNumber:    accountNumber,
		RequestingUserID: userID,
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CloseAccount unregisters the account. The record and its history are kept.
func (h *AccountHandler) CloseAccount(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	if !utils.ValidateAccountNumber(accountNumber) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid account number")
		return
	}
	userID, _ := middleware.GetUserID(c)

	account, err := h.commands.CloseAccount(c.Request.Context(), cqrs.CloseAccountCommand{
		AccountNumber:    accountNumber,
		RequestingUserID: userID,
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewAccountView(account))
}
