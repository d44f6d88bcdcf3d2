package handler

import (
	"errors"
	"net/http"

	"github.com/accountz/ledger-service/internal/ledger"
	"github.com/accountz/ledger-service/shared/middleware"
	"github.com/gin-gonic/gin"
)

// forbidden lists the conflicts that mean the caller is not allowed to act,
// as opposed to the resource being in the wrong state.
var forbidden = []error{
	ledger.ErrOwnershipMismatch,
	ledger.ErrForbidden,
	ledger.ErrIdentityRequired,
	ledger.ErrNameMismatch,
	ledger.ErrBirthdateMismatch,
	ledger.ErrEmailMismatch,
	ledger.ErrPasswordMismatch,
}

// statusFor maps a ledger error onto an HTTP status.
func statusFor(err error) int {
	switch ledger.KindOf(err) {
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindConflict:
		for _, f := range forbidden {
			if errors.Is(err, f) {
				return http.StatusForbidden
			}
		}
		return http.StatusConflict
	case ledger.KindInvariantViolation, ledger.KindLimitExceeded:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondWithLedgerError writes {code, message} for err. Storage failures
// are reported without their cause.
func respondWithLedgerError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		middleware.RespondWithErrorCode(c, status, ledger.ErrPersistence.Code, "An unexpected error occurred")
		return
	}
	var le *ledger.Error
	errors.As(err, &le)
	middleware.RespondWithErrorCode(c, status, le.Code, le.Message)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}
