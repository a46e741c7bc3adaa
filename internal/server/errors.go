package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rezonia/ubl-invoice-engine/internal/auth"
	"github.com/rezonia/ubl-invoice-engine/internal/model"
	"github.com/rezonia/ubl-invoice-engine/internal/signature"
)

// AppError is the JSON error envelope
type AppError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError is a request field that failed validation
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

var (
	ErrEmptyBody       = &AppError{Code: http.StatusBadRequest, Message: "empty request body"}
	ErrUnreadableBody  = &AppError{Code: http.StatusBadRequest, Message: "failed to read request body"}
	ErrRateLimited     = &AppError{Code: http.StatusTooManyRequests, Message: "Rate limit exceeded. Please try again later."}
	ErrSigningDisabled = &AppError{Code: http.StatusServiceUnavailable, Message: "signing is not configured"}
)

// toAppError maps domain errors onto HTTP statuses
func toAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var featureErr *auth.FeatureError
	var sigErr *signature.SignatureError
	var parseErr *model.ParseError
	var validationErr *model.ValidationError

	switch {
	case errors.Is(err, auth.ErrInvalidKey):
		return NewAppError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrClientDisabled), errors.As(err, &featureErr):
		return NewAppError(http.StatusForbidden, err.Error())
	case errors.As(err, &parseErr), errors.As(err, &validationErr):
		return NewAppError(http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &sigErr):
		return NewAppError(signatureStatus(sigErr), err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return NewAppError(http.StatusServiceUnavailable, "request timed out")
	default:
		return NewAppError(http.StatusInternalServerError, err.Error())
	}
}

func signatureStatus(err *signature.SignatureError) int {
	switch err.Code {
	case signature.ErrCodeKeyUnavailable, signature.ErrCodeInvalidKey, signature.ErrCodeInvalidCert:
		return http.StatusServiceUnavailable
	case signature.ErrCodeUnsupportedFormat, signature.ErrCodeNoSignature:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as an AppError and stops the chain
func abortWithError(c *gin.Context, err error) {
	appErr := toAppError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Code, appErr)
}

var errTrailingData = errors.New("unexpected data after JSON value")
