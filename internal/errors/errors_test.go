//nolint:revive // Package name matches the package it tests
package errors

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	all := []error{
		ErrPackageUnreadable, ErrUnitNotFound, ErrDuplicateUnit, ErrUnitInvalid,
		ErrRegistration, ErrValidation, ErrConnectivity, ErrNotFound,
	}
	for i := range all {
		for j := range all {
			if i != j {
				assert.NotEqual(t, all[i], all[j])
			}
		}
	}
}

func TestDetailErrorError(t *testing.T) {
	detail := &DetailError{
		Type:     "package unreadable",
		Message:  "zip: not a valid zip file",
		Location: "/ext-lib/broken.zip",
		Context:  map[string]string{"Key": "g:a", "Version": "1.0"},
		Hint:     "Rebuild the package",
	}

	output := detail.Error()

	assert.Contains(t, output, "Error: package unreadable")
	assert.Contains(t, output, "Location: /ext-lib/broken.zip")
	assert.Contains(t, output, "Key: g:a")
	assert.Contains(t, output, "Version: 1.0")
	assert.Contains(t, output, "zip: not a valid zip file")
	assert.Contains(t, output, "Hint: Rebuild the package")
	assert.Less(t, strings.Index(output, "Key:"), strings.Index(output, "Version:"), "context keys are sorted")
}

func TestDetailErrorUnwrap(t *testing.T) {
	detail := &DetailError{
		Type:    "test",
		Message: "test message",
		Cause:   ErrValidation,
	}

	assert.True(t, errors.Is(detail, ErrValidation))
	assert.Equal(t, ErrValidation, detail.Unwrap())
}

func TestNewUnreadableError(t *testing.T) {
	err := NewUnreadableError("truncated archive", "upload", io.ErrUnexpectedEOF)

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrPackageUnreadable))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	var detail *DetailError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "package unreadable", detail.Type)
	assert.Equal(t, "upload", detail.Location)
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("threadCount must be positive", "config.yaml", "Set extPlugin.threadCount >= 1")

	assert.True(t, errors.Is(err, ErrValidation))

	var detail *DetailError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "validation failed", detail.Type)
	assert.Equal(t, "Set extPlugin.threadCount >= 1", detail.Hint)
}

func TestWrap(t *testing.T) {
	wrapped := Wrap(ErrDuplicateUnit, "unit com.x.PluginA")

	assert.True(t, errors.Is(wrapped, ErrDuplicateUnit))
	assert.Contains(t, wrapped.Error(), "unit com.x.PluginA")
}
