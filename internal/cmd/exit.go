// Package cmd provides command implementations for the extplugin CLI.
package cmd

// Exit codes returned by the extplugin binary.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitValidationError indicates configuration or unit validation failed.
	ExitValidationError = 2

	// ExitConnectivityError indicates the package source could not be reached.
	ExitConnectivityError = 3

	// ExitPermissionDenied indicates insufficient RBAC permissions.
	ExitPermissionDenied = 4

	// ExitNotFound indicates a file, package or component was not found.
	ExitNotFound = 5

	// ExitPackageUnreadable indicates a package archive could not be read.
	ExitPackageUnreadable = 7
)

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitValidationError:
		return "Validation Error"
	case ExitConnectivityError:
		return "Connectivity Error"
	case ExitPermissionDenied:
		return "Permission Denied"
	case ExitNotFound:
		return "Not Found"
	case ExitPackageUnreadable:
		return "Package Unreadable"
	default:
		return "Unknown"
	}
}
