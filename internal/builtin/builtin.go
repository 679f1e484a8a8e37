// Package builtin provides the unit types compiled into the gateway.
package builtin

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/opmodel/extplugin/internal/core"
	"github.com/opmodel/extplugin/internal/unit"
)

// Unit names of the built-in types.
const (
	TraceIDPluginName         = "builtin.TraceIDPlugin"
	GlobalMetaDataHandlerName = "builtin.GlobalMetaDataHandler"
)

// TraceIDHeader carries the request id set by TraceIDPlugin.
const TraceIDHeader = "X-Request-Id"

// Types returns the built-in unit types.
func Types() []*unit.Type {
	return []*unit.Type{
		unit.NewType(TraceIDPluginName, core.KindPlugin, func() (any, error) { return &TraceIDPlugin{}, nil }),
		unit.NewType(GlobalMetaDataHandlerName, core.KindMetaDataHandler, func() (any, error) {
			return NewGlobalMetaDataHandler(), nil
		}),
	}
}

// Host returns a host providing the built-in types.
func Host() (*unit.Host, error) {
	return unit.NewHost(Types()...)
}

// TraceIDPlugin assigns a request id to exchanges that lack one.
type TraceIDPlugin struct{}

// Named implements core.Plugin.
func (p *TraceIDPlugin) Named() string { return "traceId" }

// Order runs the plugin first.
func (p *TraceIDPlugin) Order() int { return -1000 }

// Skip implements core.Plugin.
func (p *TraceIDPlugin) Skip(*core.Exchange) bool { return false }

// Execute implements core.Plugin.
func (p *TraceIDPlugin) Execute(ctx context.Context, ex *core.Exchange, chain core.Chain) error {
	id := ex.Header.Get(TraceIDHeader)
	if id == "" {
		id = uuid.NewString()
		ex.Header.Set(TraceIDHeader, id)
	}
	ex.Response.Header.Set(TraceIDHeader, id)
	return chain.Execute(ctx, ex)
}

// GlobalMetaDataHandler keeps the metadata of plain HTTP services.
type GlobalMetaDataHandler struct {
	mu    sync.RWMutex
	paths map[string]core.MetaData
}

// NewGlobalMetaDataHandler creates an empty handler.
func NewGlobalMetaDataHandler() *GlobalMetaDataHandler {
	return &GlobalMetaDataHandler{paths: map[string]core.MetaData{}}
}

// RPCType implements core.MetaDataHandler.
func (h *GlobalMetaDataHandler) RPCType() string { return "http" }

// HandleMetaData implements core.MetaDataHandler.
func (h *GlobalMetaDataHandler) HandleMetaData(md core.MetaData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paths[md.Path] = md
}

// RemoveMetaData implements core.MetaDataHandler.
func (h *GlobalMetaDataHandler) RemoveMetaData(md core.MetaData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.paths, md.Path)
}

// Lookup returns the metadata for path.
func (h *GlobalMetaDataHandler) Lookup(path string) (core.MetaData, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	md, ok := h.paths[path]
	return md, ok
}
