package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeTimeout      = "TIMEOUT"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidInput = "INVALID_INPUT"

	CodeIdentityNotFound      = "IDENTITY_NOT_FOUND"
	CodeBusyTimeUnavailable   = "BUSY_TIME_UNAVAILABLE"
	CodeNoAssigneeAvailable   = "NO_ASSIGNEE_AVAILABLE"
	CodeSlotNoLongerAvailable = "SLOT_NO_LONGER_AVAILABLE"
	CodeCalendarWriteFailed   = "CALENDAR_WRITE_FAILED"
	CodeCRMWriteFailed        = "CRM_WRITE_FAILED"
	CodeStaleReference        = "STALE_REFERENCE"
)

// Side names the external system a write failure happened on, so that an
// operator can reconcile calendar and CRM by hand.
type Side string

const (
	SideNone     Side = ""
	SideCalendar Side = "calendar"
	SideCRM      Side = "crm"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Side       Side           `json:"side,omitempty"`
	Retryable  bool           `json:"retryable,omitempty"`
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

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(e.Response())
	return data
}

func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{
		Code:      e.Code,
		Message:   e.Message,
		Side:      e.Side,
		Retryable: e.Retryable,
		Details:   e.Details,
	}
}

type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Side      Side           `json:"side,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
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

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
		Retryable:  true,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
		Retryable:  true,
	}
}

func IdentityNotFound(email string) *AppError {
	return &AppError{
		Code:       CodeIdentityNotFound,
		Message:    "person has not authorized calendar access",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"email": email},
	}
}

func BusyTimeUnavailable(personID string, err error) *AppError {
	return &AppError{
		Code:       CodeBusyTimeUnavailable,
		Message:    "no busy-time source answered for person",
		HTTPStatus: http.StatusServiceUnavailable,
		Retryable:  true,
		Details:    map[string]any{"person_id": personID},
		Err:        err,
	}
}

func NoAssigneeAvailable(useExternalVendor bool) *AppError {
	msg := "no eligible assignee, contact support"
	if useExternalVendor {
		msg = "no internal assignee covers this merchant, use an external vendor"
	}
	return &AppError{
		Code:       CodeNoAssigneeAvailable,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"use_external_vendor": useExternalVendor},
	}
}

func SlotNoLongerAvailable(personID, slot string) *AppError {
	return &AppError{
		Code:       CodeSlotNoLongerAvailable,
		Message:    "slot was taken, pick another slot",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"person_id": personID, "slot": slot},
	}
}

func CalendarWriteFailed(err error) *AppError {
	return &AppError{
		Code:       CodeCalendarWriteFailed,
		Message:    "calendar write failed",
		HTTPStatus: http.StatusBadGateway,
		Side:       SideCalendar,
		Retryable:  true,
		Err:        err,
	}
}

func CRMWriteFailed(err error) *AppError {
	return &AppError{
		Code:       CodeCRMWriteFailed,
		Message:    "crm write failed",
		HTTPStatus: http.StatusBadGateway,
		Side:       SideCRM,
		Retryable:  true,
		Err:        err,
	}
}

func StaleReference(eventID string) *AppError {
	return &AppError{
		Code:       CodeStaleReference,
		Message:    "calendar event no longer exists",
		HTTPStatus: http.StatusGone,
		Side:       SideCalendar,
		Details:    map[string]any{"event_id": eventID},
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
