package storage

import (
	"errors"
	"fmt"
)

// ============================================================================
// STORAGE ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.
// StorageError satisfies domain.Coded, so handlers map it to a status directly.

const (
	codeInternal = "internal"
	codeInvalid  = "invalid"
	codeNotFound = "not_found"
)

// ============================================================================
// STORAGE ERROR TYPE
// ============================================================================

// StorageError represents a storage-specific error with a code and message.
type StorageError struct {
	Code    string
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *StorageError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *StorageError) ErrorMessage() string {
	return e.Message
}

// IsNotFound reports whether err is a storage not-found error.
func IsNotFound(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Code == codeNotFound
}

// ============================================================================
// STORAGE DOMAIN ERRORS
// ============================================================================

var (
	// ErrR2AccountIDRequired is returned when R2 account ID is missing.
	ErrR2AccountIDRequired = &StorageError{Code: codeInvalid, Message: "R2 account ID is required"}

	// ErrR2CredentialsRequired is returned when R2 credentials are missing.
	ErrR2CredentialsRequired = &StorageError{Code: codeInvalid, Message: "R2 credentials are required"}

	// ErrBucketRequired is returned when no bucket name is configured.
	ErrBucketRequired = &StorageError{Code: codeInvalid, Message: "bucket name is required"}
)

// ErrFileNotFound creates an error for when a file is not found.
func ErrFileNotFound(key string) error {
	return &StorageError{
		Code:    codeNotFound,
		Message: fmt.Sprintf("file not found: %s", key),
	}
}

// ErrInvalidKey rejects keys that escape the storage root.
func ErrInvalidKey(key string) error {
	return &StorageError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("invalid file name: %q", key),
	}
}

// ErrUnknownProvider creates an error for unknown storage providers.
func ErrUnknownProvider(provider string) error {
	return &StorageError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("unknown storage provider: %s", provider),
	}
}

func ioError(op, key string, err error) error {
	return &StorageError{
		Code:    codeInternal,
		Message: fmt.Sprintf("failed to %s %s", op, key),
		Err:     err,
	}
}
