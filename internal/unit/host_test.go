package unit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/extplugin/internal/core"
	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/unit"
)

func hostType(name string) *unit.Type {
	return unit.NewType(name, core.KindNone, func() (any, error) { return struct{}{}, nil })
}

func TestHost_Resolve(t *testing.T) {
	h, err := unit.NewHost(hostType("b"), hostType("a"))
	require.NoError(t, err)

	typ, err := h.Resolve("a")
	require.NoError(t, err)
	assert.Equal(t, unit.OriginHost, typ.Origin)
	assert.True(t, h.Provides("b"))
	assert.Equal(t, []string{"a", "b"}, h.Names())

	_, err = h.Resolve("missing")
	assert.ErrorIs(t, err, oerrors.ErrUnitNotFound)
}

func TestHost_ProvideDuplicate(t *testing.T) {
	_, err := unit.NewHost(hostType("a"), hostType("a"))
	assert.ErrorIs(t, err, oerrors.ErrDuplicateUnit)
}

func TestType_NewWithoutConstructor(t *testing.T) {
	_, err := (&unit.Type{Name: "bare"}).New()
	assert.Error(t, err)
}
