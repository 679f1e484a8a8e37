package promoter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/extplugin/internal/container"
	"github.com/opmodel/extplugin/internal/core"
	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/promoter"
	"github.com/opmodel/extplugin/internal/unit"
)

type fakePlugin struct{}

func (fakePlugin) Named() string            { return "fake" }
func (fakePlugin) Order() int               { return 0 }
func (fakePlugin) Skip(*core.Exchange) bool { return false }
func (fakePlugin) Execute(ctx context.Context, ex *core.Exchange, c core.Chain) error {
	return c.Execute(ctx, ex)
}

type fakeDataHandler struct{}

func (fakeDataHandler) PluginNamed() string          { return "fake" }
func (fakeDataHandler) HandlePlugin(core.PluginData) {}
func (fakeDataHandler) RemovePlugin(core.PluginData) {}

type fakeMetaHandler struct{}

func (fakeMetaHandler) RPCType() string              { return "http" }
func (fakeMetaHandler) HandleMetaData(core.MetaData) {}
func (fakeMetaHandler) RemoveMetaData(core.MetaData) {}

type fakeDecorator struct{}

func (fakeDecorator) DecoratorProperty() string                                  { return "http" }
func (fakeDecorator) Decorate(ex *core.Exchange, _ core.MetaData) *core.Exchange { return ex }

// pluginAndHandler satisfies two capabilities; the plugin check wins.
type pluginAndHandler struct {
	fakePlugin
	fakeDataHandler
}

func (pluginAndHandler) Named() string { return "both" }

func resolverOf(types ...*unit.Type) unit.Resolver {
	byName := map[string]*unit.Type{}
	for _, t := range types {
		byName[t.Name] = t
	}
	return &mapResolver{types: byName}
}

type mapResolver struct{ types map[string]*unit.Type }

func (r *mapResolver) Resolve(name string) (*unit.Type, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, oerrors.ErrUnitNotFound
	}
	return t, nil
}

func typeOf(name string, kind core.Kind, inst any) *unit.Type {
	return unit.NewType(name, kind, func() (any, error) { return inst, nil })
}

func TestClassify_Order(t *testing.T) {
	p := promoter.New(container.NewMemory())

	tests := []struct {
		name string
		inst any
		want core.Kind
	}{
		{"plugin", fakePlugin{}, core.KindPlugin},
		{"data handler", fakeDataHandler{}, core.KindDataHandler},
		{"metadata handler", fakeMetaHandler{}, core.KindMetaDataHandler},
		{"decorator", fakeDecorator{}, core.KindContextDecorator},
		{"plugin wins over data handler", pluginAndHandler{}, core.KindPlugin},
		{"none", struct{}{}, core.KindNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := p.Classify("unit", tt.inst)
			assert.Equal(t, tt.want, c.Kind)
			assert.Equal(t, "unit", c.Name)
		})
	}
}

func TestRegister_Eligibility(t *testing.T) {
	mem := container.NewMemory()
	p := promoter.New(mem)

	marked := typeOf("com.x.Marked", core.KindNone, struct{}{})
	marked.Marked = true
	r := resolverOf(
		typeOf("com.x.Plugin", core.KindPlugin, fakePlugin{}),
		typeOf("com.x.Support", core.KindNone, struct{}{}),
		marked,
	)

	name, err := p.Register("com.x.Plugin", r)
	require.NoError(t, err)
	assert.Equal(t, "com.x.Plugin", name)

	name, err = p.Register("com.x.Support", r)
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.False(t, mem.Exists("com.x.Support"))

	name, err = p.Register("com.x.Marked", r)
	require.NoError(t, err)
	assert.Equal(t, "com.x.Marked", name)

	_, err = p.Register("com.x.Missing", r)
	assert.ErrorIs(t, err, oerrors.ErrUnitNotFound)
}

func TestRegister_Idempotent(t *testing.T) {
	mem := container.NewMemory()
	p := promoter.New(mem)
	r := resolverOf(typeOf("com.x.Plugin", core.KindPlugin, &fakePlugin{}))

	first, err := p.Register("com.x.Plugin", r)
	require.NoError(t, err)
	inst, err := p.Instantiate(first)
	require.NoError(t, err)

	second, err := p.Register("com.x.Plugin", r)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	again, err := p.Instantiate(second)
	require.NoError(t, err)
	assert.Same(t, inst, again, "re-registration keeps the existing instance")
	assert.Equal(t, []string{"com.x.Plugin"}, mem.Names())
}

type rejectingContainer struct{ *container.Memory }

func (rejectingContainer) Register(string, *unit.Type, unit.Resolver) (string, error) {
	return "", errors.New("container full")
}

func TestRegister_ContainerRejects(t *testing.T) {
	p := promoter.New(rejectingContainer{container.NewMemory()})
	r := resolverOf(typeOf("com.x.Plugin", core.KindPlugin, fakePlugin{}))

	_, err := p.Register("com.x.Plugin", r)
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrRegistration)
	assert.Contains(t, err.Error(), "container full")
}

func TestPromote(t *testing.T) {
	p := promoter.New(container.NewMemory())
	r := resolverOf(
		typeOf("com.x.Plugin", core.KindPlugin, fakePlugin{}),
		typeOf("com.x.Support", core.KindNone, struct{}{}),
	)

	c, ok, err := p.Promote("com.x.Plugin", r)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.KindPlugin, c.Kind)

	_, ok, err = p.Promote("com.x.Support", r)
	require.NoError(t, err)
	assert.False(t, ok)
}
