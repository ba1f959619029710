package holidayerrors

import (
	"net/http"

	"muni-hris/internal/shared/apperror"
)

var (
	ErrHolidayNotFound = apperror.New(
		apperror.CodeNotFound,
		"holiday not found",
		http.StatusNotFound,
	)
	ErrDuplicateHoliday = apperror.New(
		apperror.CodeConflict,
		"a holiday already exists on this date for this department",
		http.StatusConflict,
	)
	ErrWorkdayCannotDeduct = apperror.New(
		apperror.CodeInvalidInput,
		"designated workdays cannot deduct leave",
		http.StatusBadRequest,
	)
	ErrInvalidHolidayType = apperror.New(
		apperror.CodeInvalidInput,
		"type must be holiday or workday",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDepartmentID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid department id",
		http.StatusBadRequest,
	)
	ErrDepartmentNotFound = apperror.New(
		apperror.CodeNotFound,
		"department not found",
		http.StatusNotFound,
	)
)
