package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeInvalidInput = "INVALID_INPUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"

	// Booking-conflict taxonomy. ResourceBusy is the only retryable code:
	// it means lock contention, not a committed conflicting booking.
	CodeCourtUnavailable      = "COURT_UNAVAILABLE"
	CodeCoachUnavailable      = "COACH_UNAVAILABLE"
	CodeInsufficientEquipment = "INSUFFICIENT_EQUIPMENT"
	CodeResourceBusy          = "RESOURCE_BUSY"
	CodeAlreadyCancelled      = "ALREADY_CANCELLED"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
	return data
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func CourtUnavailable(courtID string, start, end string) *AppError {
	return &AppError{
		Code:       CodeCourtUnavailable,
		Message:    "Court is already booked for the requested time",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"court_id":   courtID,
			"start_time": start,
			"end_time":   end,
		},
	}
}

func CoachUnavailable(coachID string, start, end string) *AppError {
	return &AppError{
		Code:       CodeCoachUnavailable,
		Message:    "Coach is unavailable for the requested time",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"coach_id":   coachID,
			"start_time": start,
			"end_time":   end,
		},
	}
}

func InsufficientEquipment(inventoryID string, requested int) *AppError {
	return &AppError{
		Code:       CodeInsufficientEquipment,
		Message:    "Not enough equipment stock for the requested time",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"inventory_id": inventoryID,
			"requested":    requested,
		},
	}
}

func ResourceBusy(resource string) *AppError {
	return &AppError{
		Code:       CodeResourceBusy,
		Message:    "Resource is locked by another booking attempt. Please retry.",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"resource": resource,
		},
	}
}

func AlreadyCancelled(bookingID string) *AppError {
	return &AppError{
		Code:       CodeAlreadyCancelled,
		Message:    "Booking is already cancelled",
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{
			"id": bookingID,
		},
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts the AppError from err's chain, or wraps err as an
// internal error so callers always get a status code to write.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// IsCode reports whether err's chain contains an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
