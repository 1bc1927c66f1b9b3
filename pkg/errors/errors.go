// Package errors defines the sentinel errors shared by the analysis pipeline
// and the AppError wrapper the CLI uses to pick an exit code.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrConfigurationDegraded = errors.New("configuration degraded")
	ErrPreconditionViolation = errors.New("precondition violation")
	ErrInputTruncated        = errors.New("input truncated")
	ErrInvalidInput          = errors.New("invalid input")
	ErrPublishFailed         = errors.New("publish failed")
)

// Exit codes returned by the analyzer binary.
const (
	ExitOK           = 0
	ExitInternal     = 1
	ExitInvalidInput = 2
	ExitPrecondition = 3
	ExitPublish      = 4
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// Precondition reports a calling-sequence error inside the core.
func Precondition(format string, args ...any) *AppError {
	return Newf(ErrPreconditionViolation, ExitPrecondition, format, args...)
}

// Is and As re-export the standard helpers so callers need one import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return ExitInvalidInput
	case errors.Is(err, ErrPreconditionViolation):
		return ExitPrecondition
	case errors.Is(err, ErrPublishFailed):
		return ExitPublish
	case errors.Is(err, ErrConfigurationDegraded), errors.Is(err, ErrInputTruncated):
		return ExitOK
	default:
		return ExitInternal
	}
}
