package errors

import (
	"errors"
	"fmt"
)

var (
	ErrIndexNotReady    = errors.New("index not ready")
	ErrBuildInProgress  = errors.New("index build already in progress")
	ErrNoSnapshot       = errors.New("no index snapshot available")
	ErrSnapshotCorrupt  = errors.New("index snapshot corrupt")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
	ErrInternal         = errors.New("internal error")
	ErrTimeout          = errors.New("operation timed out")
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}
