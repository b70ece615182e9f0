package errors

import "fmt"

// Error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeEngineUnavailable = "ENGINE_UNAVAILABLE"
	ErrCodeEngineTimeout     = "ENGINE_TIMEOUT"
	ErrCodeCorruptGameInput  = "CORRUPT_GAME_INPUT"
	ErrCodeCacheIO           = "CACHE_IO_FAILURE"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "ENGINE_TIMEOUT")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code so errors.Is works with sentinel-style checks.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewEngineUnavailableError reports a dead or unstartable engine process.
// Recoverable by discarding the session and creating a fresh one.
func NewEngineUnavailableError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeEngineUnavailable,
		Message: "engine process unavailable",
		Status:  503,
		Err:     err,
	}
}

// NewEngineTimeoutError reports an evaluation that exceeded its time budget.
func NewEngineTimeoutError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeEngineTimeout,
		Message: "engine evaluation timed out",
		Status:  504,
		Err:     err,
	}
}

// NewCorruptGameInputError reports a game whose move list cannot be
// reconstructed. Unrecoverable for that game; never aborts the batch.
func NewCorruptGameInputError(gameID string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeCorruptGameInput,
		Message: fmt.Sprintf("cannot reconstruct moves for game %s", gameID),
		Status:  422,
		Err:     err,
	}
}

// NewCacheIOError reports a cache read/write failure. Callers treat reads
// as a miss and fall back to the engine.
func NewCacheIOError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeCacheIO,
		Message: "evaluation cache I/O failure",
		Status:  500,
		Err:     err,
	}
}
