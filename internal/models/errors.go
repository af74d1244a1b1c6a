package models

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error codes used across the application.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeAuth             = "AUTH_ERROR"
	CodeEncoding         = "ENCODING_ERROR"
	CodeTransfer         = "TRANSFER_ERROR"
	CodeResolution       = "RESOLUTION_ERROR"
	CodeWrite            = "WRITE_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewValidationErrors aggregates every violated constraint into a single
// validation error so the caller sees the full set, not just the first.
func NewValidationErrors(violations []string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: strings.Join(violations, "; "),
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewNotAuthenticatedError is returned when an operation requires a signed-in
// identity and none is available. Raised before any backend call is made.
func NewNotAuthenticatedError() *AppError {
	return &AppError{
		Code:    CodeNotAuthenticated,
		Message: "User not logged in",
	}
}

// NewAuthError wraps a backend-reported authentication failure. The message
// is passed through verbatim; no reclassification or retry.
func NewAuthError(err error) *AppError {
	return &AppError{
		Code:    CodeAuth,
		Message: err.Error(),
		Err:     err,
	}
}

// NewEncodingError marks an asset that could not be encoded for transmission.
func NewEncodingError(err error) *AppError {
	return &AppError{
		Code:    CodeEncoding,
		Message: "Invalid media asset",
		Err:     err,
	}
}

// NewTransferError marks a blob write that failed.
func NewTransferError(err error) *AppError {
	return &AppError{
		Code:    CodeTransfer,
		Message: "Media upload failed",
		Err:     err,
	}
}

// NewResolutionError marks a written blob whose public reference could not be
// resolved. The blob exists but is orphaned from the caller's perspective.
func NewResolutionError(err error) *AppError {
	return &AppError{
		Code:    CodeResolution,
		Message: "Uploaded media could not be resolved",
		Err:     err,
	}
}

// NewWriteError wraps a document-store write failure.
func NewWriteError(err error) *AppError {
	return &AppError{
		Code:    CodeWrite,
		Message: "Profile write failed",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// ErrorCode returns the AppError code for err, or CodeInternal for foreign errors.
func ErrorCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeInternal
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
