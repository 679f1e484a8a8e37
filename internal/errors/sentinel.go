package errors

import "errors"

// Sentinel errors for known conditions.
var (
	// ErrPackageUnreadable indicates a package stream could not be read or its
	// metadata could not be decoded.
	ErrPackageUnreadable = errors.New("package unreadable")

	// ErrUnitNotFound indicates neither the package nor the host provides a unit.
	ErrUnitNotFound = errors.New("unit not found")

	// ErrDuplicateUnit indicates a package unit shadows a name the host already provides.
	ErrDuplicateUnit = errors.New("duplicate unit")

	// ErrUnitInvalid indicates a unit document failed to compile or validate.
	ErrUnitInvalid = errors.New("invalid unit")

	// ErrRegistration indicates the component container rejected a registration.
	ErrRegistration = errors.New("registration failed")

	// ErrValidation indicates a configuration or schema validation failure.
	ErrValidation = errors.New("validation error")

	// ErrConnectivity indicates a package source could not be reached.
	ErrConnectivity = errors.New("connectivity error")

	// ErrNotFound indicates a file, package or component was not found.
	ErrNotFound = errors.New("not found")
)
