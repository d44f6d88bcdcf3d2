package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler the service exposes.
type Handlers struct {
	Users        *UserHandler
	Auth         *AuthHandler
	Accounts     *AccountHandler
	Transactions *TransactionHandler
}

// RegisterRoutes mounts the public and authenticated routes on r.
func RegisterRoutes(r *gin.Engine, h Handlers, auth gin.HandlerFunc) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.POST("/users", h.Users.CreateUser)
	v1.POST("/auth/login", h.Auth.Login)
	v1.POST("/auth/refresh", h.Auth.RefreshToken)

	protected := v1.Group("")
	protected.Use(auth)

	protected.GET("/users/:userId", h.Users.GetUser)

	accounts := protected.Group("/accounts")
	accounts.POST("", h.Accounts.CreateAccount)
	accounts.GET("", h.Accounts.ListAccounts)
	accounts.GET("/:accountNumber", h.Accounts.GetAccount)
	accounts.DELETE("/:accountNumber", h.Accounts.CloseAccount)
	accounts.GET("/:accountNumber/received", h.Transactions.ListReceived)

	transactions := protected.Group("/transactions")
	transactions.POST("/deposit", h.Transactions.Deposit)
	transactions.POST("/withdraw", h.Transactions.Withdraw)
	transactions.POST("/transfer", h.Transactions.Transfer)
	transactions.POST("/cancel", h.Transactions.CancelTransaction)
	transactions.GET("", h.Transactions.ListTransactions)
	transactions.GET("/failed", h.Transactions.ListFailed)
	transactions.GET("/by-counterparty", h.Transactions.ListByCounterparty)
	transactions.GET("/between", h.Transactions.ListBetween)
	transactions.GET("/:transactionId", h.Transactions.GetTransaction)
}
