package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/accountz/ledger-service/shared/cqrs"
	"github.com/accountz/ledger-service/shared/middleware"
	"github.com/accountz/ledger-service/shared/models"
	"github.com/gin-gonic/gin"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	CreateUser(context.Context, cqrs.CreateUserCommand) (*models.User, error)
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(context.Context, cqrs.GetUserQuery) (*models.UserView, error)
}

// UserHandler routes requests to the command or query service as appropriate.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

type CreateUserRequest struct {
	Name      string `json:"name" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	BirthDate string `json:"birthDate" validate:"required,datetime=2006-01-02"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	birthDate, _ := time.Parse(dateLayout, req.BirthDate)
	if birthDate.After(time.Now()) {
		middleware.RespondWithError(c, http.StatusBadRequest, "Birth date must be in the past")
		return
	}

	user, err := h.commands.CreateUser(c.Request.Context(), cqrs.CreateUserCommand{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		BirthDate: birthDate,
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewUserView(user))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID := c.Param("userId")
	requestingUserID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{
		UserID:           userID,
		RequestingUserID: requestingUserID,
	})
	if err != nil {
		respondWithLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
