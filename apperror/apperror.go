// Package apperror defines a centralized system for application-specific errors.
// Services return *AppError values and the HTTP layer maps them to status codes,
// so every handler answers with the same `{"error": "..."}` body shape.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines the type of application error.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// DatabaseError represents an error originating from the database
	DatabaseError
	// ConfigError represents an error related to application configuration
	ConfigError
	// AuthError represents an authentication error (e.g. invalid credentials)
	AuthError
	// UnauthorizedError represents an authorization error (e.g. acting for another user)
	UnauthorizedError
	// NotFoundError represents a resource not found error
	NotFoundError
	// ValidationError represents an input validation error
	ValidationError
	// BadRequestError represents a generic bad request
	BadRequestError
	// InternalError represents a generic internal server error
	InternalError
	// ExternalServiceError represents an error from an external service (mail, broker, cache)
	ExternalServiceError
	// MigrationError represents an error during database migrations
	MigrationError
	// ConflictError represents a conflict, e.g., username already taken
	ConflictError
)

// String returns a short name for the error type, used in log lines.
func (t ErrorType) String() string {
	switch t {
	case DatabaseError:
		return "database"
	case ConfigError:
		return "config"
	case AuthError:
		return "auth"
	case UnauthorizedError:
		return "unauthorized"
	case NotFoundError:
		return "not_found"
	case ValidationError:
		return "validation"
	case BadRequestError:
		return "bad_request"
	case InternalError:
		return "internal"
	case ExternalServiceError:
		return "external_service"
	case MigrationError:
		return "migration"
	case ConflictError:
		return "conflict"
	default:
		return "unknown"
	}
}

// AppError is a custom error type for the application.
// Message is safe to show to API clients; Err keeps the underlying cause for logs.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error // Underlying error
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error so errors.Is / errors.As can walk the chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code appropriate for the error type
func (e *AppError) StatusCode() int {
	switch e.Type {
	case DatabaseError, ConfigError, InternalError, MigrationError:
		return http.StatusInternalServerError
	case AuthError:
		return http.StatusUnauthorized
	case UnauthorizedError:
		// 401 is for a missing/invalid identity (AuthError); a known viewer acting
		// outside their permissions gets 403.
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ValidationError, BadRequestError:
		return http.StatusBadRequest
	case ExternalServiceError:
		return http.StatusBadGateway
	case ConflictError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new AppError. This is the generic constructor used by the
// typed helpers below.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(message string, underlyingError error) *AppError {
	return NewAppError(DatabaseError, message, underlyingError)
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string, underlyingError error) *AppError {
	return NewAppError(ConfigError, message, underlyingError)
}

// NewAuthError creates a new AuthError (for authentication issues)
func NewAuthError(message string, underlyingError error) *AppError {
	return NewAppError(AuthError, message, underlyingError)
}

// NewUnauthorizedError creates a new UnauthorizedError (for authorization issues)
func NewUnauthorizedError(message string, underlyingError error) *AppError {
	return NewAppError(UnauthorizedError, message, underlyingError)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string, underlyingError error) *AppError {
	return NewAppError(NotFoundError, message, underlyingError)
}

// NewValidationError creates a new ValidationError
func NewValidationError(message string, underlyingError error) *AppError {
	return NewAppError(ValidationError, message, underlyingError)
}

// NewBadRequestError creates a new BadRequestError
func NewBadRequestError(message string, underlyingError error) *AppError {
	return NewAppError(BadRequestError, message, underlyingError)
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// NewExternalServiceError creates a new ExternalServiceError
func NewExternalServiceError(message string, underlyingError error) *AppError {
	return NewAppError(ExternalServiceError, message, underlyingError)
}

// NewMigrationError creates a new MigrationError
func NewMigrationError(message string, underlyingError error) *AppError {
	return NewAppError(MigrationError, message, underlyingError)
}

// NewConflictError creates a new ConflictError
func NewConflictError(message string, underlyingError error) *AppError {
	return NewAppError(ConflictError, message, underlyingError)
}

// ErrorResponse represents a generic error response payload for API clients.
type ErrorResponse struct {
	Error string `json:"error" example:"A description of the error"`
}

// ToResponse converts an AppError to an ErrorResponse suitable for API responses.
// Only the user-facing Message is included, never the underlying Err.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message}
}

// FromError attempts to convert a generic error to an *AppError, following wrapped
// errors. It returns the *AppError and true if successful, otherwise nil and false.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool { return isType(err, NotFoundError) }

// IsAuthError checks if an error is an AuthError (authentication problem)
func IsAuthError(err error) bool { return isType(err, AuthError) }

// IsUnauthorizedError checks if an error is an UnauthorizedError (authorization problem)
func IsUnauthorizedError(err error) bool { return isType(err, UnauthorizedError) }

// IsValidationError checks if an error is a Validation error
func IsValidationError(err error) bool { return isType(err, ValidationError) }

// IsConflictError checks if an error is a Conflict error
func IsConflictError(err error) bool { return isType(err, ConflictError) }
