package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/BartuV/telsiz/internal/domain"
)

// Denial codes surfaced by the authorization pipeline. The HTTP layer
// maps each code to a status; nothing in the core collapses them into
// a generic "unauthorized".
const (
	CodeNotRegistered      = "NOT_REGISTERED"
	CodeAlreadyRegistered  = "ALREADY_REGISTERED"
	CodeExpiredToken       = "EXPIRED_TOKEN"
	CodeInvalidSignature   = "INVALID_SIGNATURE"
	CodeSessionMismatch    = "SESSION_MISMATCH"
	CodeNoActiveSession    = "NO_ACTIVE_SESSION"
	CodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
	CodeLookupFailed       = "LOOKUP_FAILED"
	CodeStorageFault       = "STORAGE_FAULT"
	CodeMissingCredential  = "MISSING_EXTERNAL_CREDENTIAL"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeGatewayNotReady    = "GATEWAY_NOT_READY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidServerToken = "INVALID_SERVER_TOKEN"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewDenial builds the 401-class denial for a verification failure.
func NewDenial(code, message string) error {
	return NewDomainError(code, message, http.StatusUnauthorized, nil)
}

func NewNotRegistered(guildID string) error {
	return NewDomainError(CodeNotRegistered, "please register your server with the discord bot",
		http.StatusNotFound, map[string]any{"guild_id": guildID})
}

func NewAlreadyRegistered(guildID string) error {
	return NewDomainError(CodeAlreadyRegistered, "server already has a token; reset it to get a new one",
		http.StatusConflict, map[string]any{"guild_id": guildID})
}

func NewIdentityNotFound(externalID string) error {
	return NewDomainError(CodeIdentityNotFound, "user not found",
		http.StatusNotFound, map[string]any{"external_user_id": externalID})
}

func NewLookupFailed(err error) error {
	return &DomainError{
		Code:       CodeLookupFailed,
		Message:    "identity lookup failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewStorageFault(err error) error {
	return &DomainError{
		Code:       CodeStorageFault,
		Message:    "storage unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewGatewayNotReady() error {
	return NewDomainError(CodeGatewayNotReady, "bot isn't active yet", http.StatusServiceUnavailable, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError, classifying
// the store-layer sentinels on the way.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if domain.IsStorageFault(err) {
		if de, ok := NewStorageFault(err).(*DomainError); ok {
			return de
		}
	}
	if errors.Is(err, domain.ErrNotFound) {
		return NewDomainError("NOT_FOUND", "resource not found", http.StatusNotFound, nil)
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
