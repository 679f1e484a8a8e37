package pipeline_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/extplugin/internal/core"
	"github.com/opmodel/extplugin/internal/pipeline"
)

// recordingPlugin appends its name to the exchange trail.
type recordingPlugin struct {
	name    string
	order   int
	skip    bool
	respond bool
}

func (p *recordingPlugin) Named() string            { return p.name }
func (p *recordingPlugin) Order() int               { return p.order }
func (p *recordingPlugin) Skip(*core.Exchange) bool { return p.skip }
func (p *recordingPlugin) Execute(ctx context.Context, ex *core.Exchange, c core.Chain) error {
	trail, _ := ex.Attribute("trail")
	ex.SetAttribute("trail", trail+p.name+";")
	if p.respond {
		ex.Respond(http.StatusOK, "text/plain", []byte(p.name))
		return nil
	}
	return c.Execute(ctx, ex)
}

func names(plugins []core.Plugin) []string {
	out := make([]string, len(plugins))
	for i, p := range plugins {
		out[i] = p.Named()
	}
	return out
}

func TestPutExtPlugins_AppendsAndSorts(t *testing.T) {
	d := pipeline.NewDispatcher(&recordingPlugin{name: "b", order: 20})

	d.PutExtPlugins([]core.Plugin{
		&recordingPlugin{name: "a", order: 10},
		&recordingPlugin{name: "c", order: 30},
	})

	assert.Equal(t, []string{"a", "b", "c"}, names(d.Plugins()))
}

func TestPutExtPlugins_ReplacesByName(t *testing.T) {
	d := pipeline.NewDispatcher(&recordingPlugin{name: "a", order: 10}, &recordingPlugin{name: "b", order: 20})
	replacement := &recordingPlugin{name: "a", order: 30}

	d.PutExtPlugins([]core.Plugin{replacement})

	plugins := d.Plugins()
	assert.Equal(t, []string{"b", "a"}, names(plugins))
	assert.Same(t, replacement, plugins[1])
}

func TestPutExtPlugins_EmptyIsNoOp(t *testing.T) {
	d := pipeline.NewDispatcher(&recordingPlugin{name: "a"})
	d.PutExtPlugins(nil)
	assert.Equal(t, []string{"a"}, names(d.Plugins()))
}

func TestPlugins_ReturnsCopy(t *testing.T) {
	d := pipeline.NewDispatcher(&recordingPlugin{name: "a"})
	list := d.Plugins()
	list[0] = &recordingPlugin{name: "mutated"}
	assert.Equal(t, []string{"a"}, names(d.Plugins()))
}

func TestExecute_WalksChain(t *testing.T) {
	d := pipeline.NewDispatcher(
		&recordingPlugin{name: "a", order: 1},
		&recordingPlugin{name: "skipped", order: 2, skip: true},
		&recordingPlugin{name: "b", order: 3, respond: true},
		&recordingPlugin{name: "never", order: 4},
	)

	ex := core.NewExchange(http.MethodGet, "/", nil)
	require.NoError(t, d.Execute(context.Background(), ex))

	trail, _ := ex.Attribute("trail")
	assert.Equal(t, "a;b;", trail)
	assert.Equal(t, "b", string(ex.Response.Body))
}

func TestExecute_Canceled(t *testing.T) {
	d := pipeline.NewDispatcher(&recordingPlugin{name: "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Execute(ctx, core.NewExchange(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_SnapshotSurvivesPublish(t *testing.T) {
	d := pipeline.NewDispatcher(&recordingPlugin{name: "a", order: 1})
	ex := core.NewExchange(http.MethodGet, "/", nil)

	publisher := &publishingPlugin{d: d}
	d.PutExtPlugins([]core.Plugin{publisher})
	require.NoError(t, d.Execute(context.Background(), ex))

	trail, _ := ex.Attribute("trail")
	assert.Equal(t, "a;", trail, "a publish during dispatch does not affect the running chain")
	assert.Len(t, d.Plugins(), 3)
}

// publishingPlugin publishes a new plugin while executing.
type publishingPlugin struct{ d *pipeline.Dispatcher }

func (p *publishingPlugin) Named() string            { return "publisher" }
func (p *publishingPlugin) Order() int               { return 0 }
func (p *publishingPlugin) Skip(*core.Exchange) bool { return false }
func (p *publishingPlugin) Execute(ctx context.Context, ex *core.Exchange, c core.Chain) error {
	p.d.PutExtPlugins([]core.Plugin{&recordingPlugin{name: "late", order: 5}})
	return c.Execute(ctx, ex)
}
