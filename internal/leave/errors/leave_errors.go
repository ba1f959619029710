package errors

import (
	"fmt"
	"net/http"
	"strings"

	"muni-hris/internal/shared/apperror"

	"github.com/shopspring/decimal"
)

// Codes for errors the caller must distinguish programmatically. The generic
// shared codes cover the rest.
const (
	CodeDuplicateGrant     = "DUPLICATE_GRANT"
	CodeOverlappingRequest = "OVERLAPPING_REQUEST"
)

var (
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"Leave request not found",
		http.StatusNotFound,
	)

	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)

	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"Date must be in YYYY-MM-DD format",
		http.StatusBadRequest,
	)

	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"Start date must not be after end date",
		http.StatusBadRequest,
	)

	ErrCrossYearRange = apperror.New(
		apperror.CodeInvalidInput,
		"Leave requests must stay within one calendar year; split the request at January 1",
		http.StatusBadRequest,
	)

	ErrPastStartDate = apperror.New(
		apperror.CodeInvalidInput,
		"Leave cannot start in the past",
		http.StatusBadRequest,
	)

	ErrHalfDayMultiDay = apperror.New(
		apperror.CodeInvalidInput,
		"Half-day leave must cover a single date",
		http.StatusBadRequest,
	)

	ErrInvalidLeaveKind = apperror.New(
		apperror.CodeInvalidInput,
		"Leave kind must be full_day or half_day",
		http.StatusBadRequest,
	)

	ErrNoLeaveDaysInRange = apperror.New(
		apperror.CodeInvalidInput,
		"The requested range contains no deductible leave days",
		http.StatusBadRequest,
	)

	ErrOverlappingRequest = apperror.New(
		CodeOverlappingRequest,
		"An active leave request already covers part of this range",
		http.StatusConflict,
	)

	ErrDuplicateGrant = apperror.New(
		CodeDuplicateGrant,
		"An identical grant already exists for this employee and year",
		http.StatusConflict,
	)

	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"Leave balance is insufficient for this operation",
		http.StatusUnprocessableEntity,
	)

	ErrInvalidStateTransition = apperror.New(
		apperror.CodeInvalidState,
		"The leave request is not in a state that allows this operation",
		http.StatusConflict,
	)

	ErrNotRequestOwner = apperror.New(
		apperror.CodeForbidden,
		"Only the requesting employee may perform this operation",
		http.StatusForbidden,
	)

	ErrMissingHireDate = apperror.New(
		apperror.CodeInvalidState,
		"Employee has no hire date on record",
		http.StatusUnprocessableEntity,
	)

	ErrInvalidAmount = apperror.New(
		apperror.CodeInvalidInput,
		"Amount must be a non-zero number of days",
		http.StatusBadRequest,
	)

	ErrAdjustmentReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"Manual adjustments require a reason",
		http.StatusBadRequest,
	)

	ErrAdjustmentYearRequired = apperror.New(
		apperror.CodeInvalidInput,
		"Positive adjustments must name a grant year",
		http.StatusBadRequest,
	)

	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"Rejections require a reason",
		http.StatusBadRequest,
	)

	ErrCancellationReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"Cancellation requests require a reason",
		http.StatusBadRequest,
	)

	ErrLedgerCorruption = apperror.New(
		apperror.CodeLedgerCorruption,
		"Ledger transactions do not reconcile with the materialized balance",
		http.StatusInternalServerError,
	)
)

// InsufficientBalance carries the current balance and the requested amount so
// the caller can render a useful message.
func InsufficientBalance(balance, requested decimal.Decimal) *apperror.AppError {
	return ErrInsufficientBalance.WithDetails(map[string]any{
		"balance":   balance.String(),
		"requested": requested.String(),
	})
}

// InvalidTransition names the actual status and the statuses the operation
// expected.
func InvalidTransition(actual string, expected ...string) *apperror.AppError {
	return ErrInvalidStateTransition.
		WithMessage(fmt.Sprintf(
			"cannot perform this operation on a %s request, expected %s",
			actual, strings.Join(expected, " or "),
		)).
		WithDetails(map[string]any{
			"actual_status":     actual,
			"expected_statuses": expected,
		})
}

// LedgerMismatch reports a reconciliation failure between the transaction sum
// and the materialized totals.
func LedgerMismatch(employeeID string, year int, ledgerSum, materialized decimal.Decimal) *apperror.AppError {
	return ErrLedgerCorruption.WithDetails(map[string]any{
		"employee_id":  employeeID,
		"grant_year":   year,
		"ledger_sum":   ledgerSum.String(),
		"materialized": materialized.String(),
	})
}
