package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderComponentTable(t *testing.T) {
	out := RenderComponentTable([]ComponentRow{
		{Name: "com.x.PluginA", Kind: "plugin", Key: "g:a"},
		{Name: "com.x.DataHandler", Kind: "dataHandler", Key: "g:a"},
	})

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "com.x.PluginA")
	assert.Contains(t, out, "dataHandler")
	assert.Contains(t, out, "g:a")
}

func TestRenderEntryTable(t *testing.T) {
	out := RenderEntryTable([]EntryRow{{Key: "g:a", Version: "1.0", Source: "/ext/a.zip", Units: 3}})

	assert.Contains(t, out, "VERSION")
	assert.Contains(t, out, "1.0")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "/ext/a.zip")
}
