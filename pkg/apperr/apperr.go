// Package apperr holds the error kinds shared by repositories, clients and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotConfigured is returned when an optional integration has no URL or key.
	ErrNotConfigured = errors.New("not configured")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validation builds a ValidationError.
func Validation(msg string) error {
	return &ValidationError{Message: msg}
}

// StorageError wraps a failed call to the table store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError. A nil err stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// UpstreamError reports a non-success response from an external service.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d", e.Status)
}

// Status maps an error to the HTTP status the endpoint layer responds with.
func Status(err error) int {
	var ve *ValidationError
	var ue *UpstreamError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ue):
		if ue.Status >= 400 && ue.Status <= 599 {
			return ue.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
