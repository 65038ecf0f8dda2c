package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a coded application error that knows which HTTP status it
// maps to. Handlers pass these straight to the response layer.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds an Error sentinel.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap annotates err with a code, status and message while keeping the
// original reachable through Unwrap.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Shared sentinels. Compare by Code, not identity: Clone produces
// copies with overridden messages.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Errors raised by the time-slot validation workflow.
var (
	ErrInvalidSlot          = New("INVALID_SLOT", http.StatusBadRequest, "invalid time slot")
	ErrNoPendingSlot        = New("NO_PENDING_SLOT", http.StatusBadRequest, "no pending slot to act on")
	ErrForbiddenAction      = New("FORBIDDEN_ACTION", http.StatusForbidden, "action not allowed in current validation state")
	ErrNotOwner             = New("NOT_OWNER", http.StatusForbidden, "actor is not the session owner")
	ErrNotOperator          = New("NOT_OPERATOR", http.StatusForbidden, "actor is not an operator")
	ErrMissingProposedSlots = New("MISSING_PROPOSED_SLOTS", http.StatusBadRequest, "move requires replacement slots")
	ErrAggregateNotFound    = New("AGGREGATE_NOT_FOUND", http.StatusNotFound, "session aggregate missing or corrupt")
)

// FromError normalises any error into an *Error; unknown errors become
// a wrapped ErrInternal so nothing leaks raw to clients.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies a sentinel, optionally overriding the message.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
