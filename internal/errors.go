package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType is the structured error kind returned to API clients.
type ErrorType string

const (
	ErrorTypeAuthExpired       ErrorType = "AUTH_EXPIRED"
	ErrorTypeAuthInvalid       ErrorType = "AUTH_INVALID"
	ErrorTypePermissionDenied  ErrorType = "PERMISSION_DENIED"
	ErrorTypeValidation        ErrorType = "VALIDATION_ERROR"
	ErrorTypeInvalidTransition ErrorType = "INVALID_TRANSITION"
	ErrorTypeNotFound          ErrorType = "NOT_FOUND"
	ErrorTypeConflict          ErrorType = "CONFLICT"
	ErrorTypeDownstream        ErrorType = "DOWNSTREAM_ERROR"
	ErrorTypeInternal          ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidID          ErrorCode = "INVALID_ID"
	ErrCodeInvalidBody        ErrorCode = "INVALID_BODY"
	ErrCodeInvalidDate        ErrorCode = "INVALID_DATE"
	ErrCodeInvalidEmail       ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidStatus      ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidIssueType   ErrorCode = "INVALID_ISSUE_TYPE"
	ErrCodeInvalidCategory    ErrorCode = "INVALID_ISSUE_CATEGORY"
	ErrCodeInvalidFlag        ErrorCode = "INVALID_FLAG"
	ErrCodeInvalidImage       ErrorCode = "INVALID_IMAGE"
	ErrCodeInvalidFormat      ErrorCode = "INVALID_FORMAT"
	ErrCodeInvalidPlatform    ErrorCode = "INVALID_PLATFORM"
	ErrCodeDescriptionTooLong ErrorCode = "DESCRIPTION_TOO_LONG"

	ErrCodeTicketNotFound   ErrorCode = "TICKET_NOT_FOUND"
	ErrCodeStationNotFound  ErrorCode = "STATION_NOT_FOUND"
	ErrCodeUserNotFound     ErrorCode = "USER_NOT_FOUND"
	ErrCodeRoleNotFound     ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeGroupNotFound    ErrorCode = "GROUP_NOT_FOUND"
	ErrCodeAlertLogNotFound ErrorCode = "ALERT_LOG_NOT_FOUND"

	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeNoopTransition    ErrorCode = "NOOP_TRANSITION"
	ErrCodeTicketClosed      ErrorCode = "TICKET_CLOSED"
	ErrCodeTicketNotClosed   ErrorCode = "TICKET_NOT_CLOSED"

	ErrCodeVersionConflict   ErrorCode = "VERSION_CONFLICT"
	ErrCodeDuplicateStation  ErrorCode = "DUPLICATE_STATION"
	ErrCodeDuplicateEmail    ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeDuplicateChat     ErrorCode = "DUPLICATE_CHAT"
	ErrCodeRoleInUse         ErrorCode = "ROLE_IN_USE"
	ErrCodeCodeSpaceExceeded ErrorCode = "TICKET_CODE_EXHAUSTED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeMissingToken       ErrorCode = "MISSING_TOKEN"

	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrCodeAdminRequired    ErrorCode = "ADMIN_REQUIRED"

	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_FAILED"
	ErrCodeSenderUnavailable  ErrorCode = "SENDER_UNAVAILABLE"
	ErrCodeExportFailed       ErrorCode = "EXPORT_FAILED"
	ErrCodeQueueFull          ErrorCode = "QUEUE_FULL"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Type       ErrorType   `json:"kind"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"error"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on kind and code so copies made by WithCause and WithDetails
// still compare equal to the package level sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithCause returns a copy; sentinels are shared and must not be mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewAuthExpiredError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthExpired,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewAuthInvalidError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthInvalid,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewPermissionDeniedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypePermissionDenied,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInvalidTransitionError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidTransition,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewDownstreamError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDownstream,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrInvalidCredentials = NewAuthInvalidError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewAuthInvalidError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewAuthExpiredError("Token has expired", ErrCodeTokenExpired)
	ErrMissingToken       = NewAuthInvalidError("Missing authorization token", ErrCodeMissingToken)
	ErrAdminRequired      = NewPermissionDeniedError("Administrator access required", ErrCodeAdminRequired)
	ErrVersionConflict    = NewConflictError("Record was modified by someone else, reload and try again", ErrCodeVersionConflict)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// RequiresReauth reports whether the client must log in again.
func RequiresReauth(err error) bool {
	appErr, ok := IsAppError(err)
	if !ok {
		return false
	}
	return appErr.Type == ErrorTypeAuthExpired || appErr.Type == ErrorTypeAuthInvalid
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, e
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Message string      `json:"error"`
		Type    ErrorType   `json:"kind"`
		Code    ErrorCode   `json:"code"`
		Details interface{} `json:"details,omitempty"`
	}{
		Message: e.GetDetailedMessage(),
		Type:    e.Type,
		Code:    e.Code,
		Details: e.Details,
	})
}
