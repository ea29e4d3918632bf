package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidAmount           ErrorCode = "invalid_amount"
	InvalidInput            ErrorCode = "invalid_input"
	AccountInactive         ErrorCode = "account_inactive"
	WithdrawalsNotPermitted ErrorCode = "withdrawals_not_permitted"
	InsufficientFunds       ErrorCode = "insufficient_funds"
	PreconditionViolation   ErrorCode = "precondition_violation"
	CustomerNotFound        ErrorCode = "customer_not_found"
	AccountNotFound         ErrorCode = "account_not_found"
	SameAccountTransfer     ErrorCode = "same_account_transfer"
	DuplicateCustomer       ErrorCode = "duplicate_customer"
	DuplicateAccount        ErrorCode = "duplicate_account"
	PartialPersistence      ErrorCode = "partial_persistence"
	InternalError           ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails returns a copy carrying the extra context, so the predefined
// errors below stay immutable.
func (e *AppError) WithDetails(details string) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// HTTPStatus maps the taxonomy onto response codes: validation failures are
// 400, missing entities 404, duplicates 409, business-rule rejections 422.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidAmount, InvalidInput, SameAccountTransfer:
		return http.StatusBadRequest
	case CustomerNotFound, AccountNotFound:
		return http.StatusNotFound
	case DuplicateCustomer, DuplicateAccount:
		return http.StatusConflict
	case AccountInactive, WithdrawalsNotPermitted, InsufficientFunds, PreconditionViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrInvalidAmount           = NewAppError(InvalidAmount, "amount must be greater than zero")
	ErrAccountInactive         = NewAppError(AccountInactive, "account is not active")
	ErrWithdrawalsNotPermitted = NewAppError(WithdrawalsNotPermitted, "withdrawals are not permitted on this account")
	ErrInsufficientFunds       = NewAppError(InsufficientFunds, "insufficient funds")
	ErrCustomerNotFound        = NewAppError(CustomerNotFound, "customer not found")
	ErrAccountNotFound         = NewAppError(AccountNotFound, "account not found")
	ErrSameAccountTransfer     = NewAppError(SameAccountTransfer, "cannot transfer to the same account")
	ErrDuplicateCustomer       = NewAppError(DuplicateCustomer, "customer already exists")
	ErrDuplicateAccount        = NewAppError(DuplicateAccount, "account already exists")
)

// CodeOf extracts the taxonomy code from err, defaulting to InternalError
// for errors that did not originate in this package.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return InternalError
}

// IsPolicyRejection reports whether err is a business-rule rejection, which
// leaves an audit record, as opposed to a validation failure, which does
// not.
func IsPolicyRejection(err error) bool {
	code := CodeOf(err)
	return code == WithdrawalsNotPermitted || code == InsufficientFunds
}
