package cmd

import (
	"errors"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	oerrors "github.com/opmodel/extplugin/internal/errors"
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int

	// Printed is set when the command already reported the error.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, oerrors.ErrValidation), errors.Is(err, oerrors.ErrUnitInvalid):
		return ExitValidationError
	case errors.Is(err, oerrors.ErrConnectivity):
		return ExitConnectivityError
	case errors.Is(err, oerrors.ErrNotFound), errors.Is(err, oerrors.ErrUnitNotFound):
		return ExitNotFound
	case errors.Is(err, oerrors.ErrPackageUnreadable):
		return ExitPackageUnreadable
	}

	var status apierrors.APIStatus
	if errors.As(err, &status) {
		return exitCodeFromK8sError(err)
	}
	return ExitGeneralError
}

// exitCodeFromK8sError maps Kubernetes API errors to exit codes.
func exitCodeFromK8sError(err error) int {
	switch {
	case apierrors.IsNotFound(err):
		return ExitNotFound
	case apierrors.IsForbidden(err), apierrors.IsUnauthorized(err):
		return ExitPermissionDenied
	case apierrors.IsServiceUnavailable(err), apierrors.IsServerTimeout(err), apierrors.IsTimeout(err):
		return ExitConnectivityError
	default:
		return ExitGeneralError
	}
}

// withExitCode wraps err in an ExitError carrying its mapped code.
func withExitCode(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return NewExitError(err, ExitCodeFromError(err))
}
