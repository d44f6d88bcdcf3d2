package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger failure so callers can tell business rule
// violations apart from infrastructure faults.
type Kind int

const (
	KindPersistence Kind = iota
	KindNotFound
	KindConflict
	KindInvariantViolation
	KindLimitExceeded
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindInvariantViolation:
		return "InvariantViolation"
	case KindLimitExceeded:
		return "LimitExceeded"
	default:
		return "PersistenceError"
	}
}

// Error is the typed failure returned by every ledger operation.
// Two errors match under errors.Is when their codes are equal.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrOwnerNotFound       = newError(KindNotFound, "OWNER_NOT_FOUND", "owner not found")
	ErrUserNotFound        = newError(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrAccountNotFound     = newError(KindNotFound, "ACCOUNT_NOT_FOUND", "account not found")
	ErrTransactionNotFound = newError(KindNotFound, "TRANSACTION_NOT_FOUND", "transaction not found")

	ErrOwnershipMismatch          = newError(KindConflict, "OWNERSHIP_MISMATCH", "account belongs to another user")
	ErrAlreadyClosed              = newError(KindConflict, "ALREADY_CLOSED", "account is already unregistered")
	ErrReceiverInactive           = newError(KindConflict, "RECEIVER_INACTIVE", "receiver account is unregistered")
	ErrIdentityRequired           = newError(KindConflict, "IDENTITY_REQUIRED", "large transfers require identity verification")
	ErrNameMismatch               = newError(KindConflict, "NAME_MISMATCH", "name does not match the account holder")
	ErrBirthdateMismatch          = newError(KindConflict, "BIRTHDATE_MISMATCH", "birth date does not match the account holder")
	ErrEmailMismatch              = newError(KindConflict, "EMAIL_MISMATCH", "email does not match the account holder")
	ErrPasswordMismatch           = newError(KindConflict, "PASSWORD_MISMATCH", "password does not match")
	ErrTransactionAccountMismatch = newError(KindConflict, "TRANSACTION_ACCOUNT_MISMATCH", "transaction does not belong to the given accounts")
	ErrAlreadyCancelled           = newError(KindConflict, "ALREADY_CANCELLED", "transaction has already been cancelled")
	ErrNotCancellable             = newError(KindConflict, "NOT_CANCELLABLE", "only successful transfers can be cancelled")
	ErrEmailAlreadyRegistered     = newError(KindConflict, "EMAIL_ALREADY_REGISTERED", "email is already registered")
	ErrForbidden                  = newError(KindConflict, "FORBIDDEN", "resource belongs to another user")

	ErrInvalidAmount             = newError(KindInvariantViolation, "INVALID_AMOUNT", "amount must be positive")
	ErrInsufficientBalance       = newError(KindInvariantViolation, "INSUFFICIENT_BALANCE", "amount exceeds balance")
	ErrBalanceNotEmpty           = newError(KindInvariantViolation, "BALANCE_NOT_EMPTY", "account balance must be zero to unregister")
	ErrPartialCancelNotAllowed   = newError(KindInvariantViolation, "PARTIAL_CANCEL_NOT_ALLOWED", "cancel amount must equal the transaction amount")
	ErrCancellationWindowExpired = newError(KindInvariantViolation, "CANCELLATION_WINDOW_EXPIRED", "transaction is too old to cancel")
	ErrSameAccount               = newError(KindInvariantViolation, "SAME_ACCOUNT", "sender and receiver accounts must differ")
	ErrInvalidDateRange          = newError(KindInvariantViolation, "INVALID_DATE_RANGE", "first date must be before last date")

	ErrAccountLimitExceeded = newError(KindLimitExceeded, "ACCOUNT_LIMIT_EXCEEDED", "owner already holds the maximum number of accounts")

	ErrPersistence = newError(KindPersistence, "PERSISTENCE_ERROR", "storage failure")
)

// Persistence wraps a storage failure. Errors that are already ledger errors
// pass through untouched.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	return &Error{Kind: KindPersistence, Code: ErrPersistence.Code, Message: ErrPersistence.Message, Err: err}
}

// KindOf classifies err. Anything that is not a ledger error counts as a
// persistence failure.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindPersistence
}

// CodeOf returns the stable code for err, or the persistence code.
func CodeOf(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrPersistence.Code
}
