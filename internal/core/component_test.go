package core

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPlugin struct{}

func (stubPlugin) Named() string       { return "stub" }
func (stubPlugin) Order() int          { return 0 }
func (stubPlugin) Skip(*Exchange) bool { return false }
func (stubPlugin) Execute(ctx context.Context, ex *Exchange, c Chain) error {
	return c.Execute(ctx, ex)
}

func TestKindIsCapability(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.IsCapability(), k)
	}
	assert.False(t, KindNone.IsCapability())
	assert.False(t, Kind("bogus").IsCapability())
}

func TestComponentAccessors(t *testing.T) {
	c := Component{Name: "stub", Kind: KindPlugin, Instance: stubPlugin{}}

	p, ok := c.Plugin()
	assert.True(t, ok)
	assert.Equal(t, "stub", p.Named())

	_, ok = c.DataHandler()
	assert.False(t, ok)
	assert.False(t, c.IsExtendDataHandler())
}

func TestComponentAccessors_KindMismatch(t *testing.T) {
	c := Component{Name: "stub", Kind: KindNone, Instance: stubPlugin{}}

	_, ok := c.Plugin()
	assert.False(t, ok, "kind governs access even when the instance satisfies Plugin")
}

func TestExchangeRespond(t *testing.T) {
	ex := NewExchange(http.MethodGet, "/orders", nil)
	assert.Equal(t, http.StatusOK, ex.Response.Status)
	assert.False(t, ex.Response.Written)

	ex.Respond(http.StatusTeapot, "text/plain", []byte("short and stout"))

	assert.True(t, ex.Response.Written)
	assert.Equal(t, http.StatusTeapot, ex.Response.Status)
	assert.Equal(t, "text/plain", ex.Response.Header.Get("Content-Type"))
}

func TestExchangeAttributes(t *testing.T) {
	ex := NewExchange(http.MethodGet, "/", http.Header{})
	ex.SetAttribute("tenant", "acme")

	v, ok := ex.Attribute("tenant")
	assert.True(t, ok)
	assert.Equal(t, "acme", v)

	attrs := ex.Attributes()
	attrs["tenant"] = "changed"
	v, _ = ex.Attribute("tenant")
	assert.Equal(t, "acme", v, "Attributes returns a copy")
}
