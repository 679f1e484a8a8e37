package unit

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/opmodel/extplugin/internal/core"
)

// DeclaredPlugin is a plugin built from a plugin document.
type DeclaredPlugin struct {
	spec PluginSpec
}

func newDeclaredPlugin(s PluginSpec) *DeclaredPlugin {
	return &DeclaredPlugin{spec: s}
}

// Named implements core.Plugin.
func (p *DeclaredPlugin) Named() string { return p.spec.Name }

// Order implements core.Plugin.
func (p *DeclaredPlugin) Order() int { return p.spec.Order }

// Skip reports whether the exchange path starts with one of the skip prefixes.
func (p *DeclaredPlugin) Skip(ex *core.Exchange) bool {
	for _, prefix := range p.spec.Skip {
		if strings.HasPrefix(ex.Path, prefix) {
			return true
		}
	}
	return false
}

// Execute applies the declared headers. A declared response ends the chain.
func (p *DeclaredPlugin) Execute(ctx context.Context, ex *core.Exchange, chain core.Chain) error {
	for k, v := range p.spec.RequestHeaders {
		ex.Header.Set(k, v)
	}
	for k, v := range p.spec.ResponseHeaders {
		ex.Response.Header.Set(k, v)
	}
	if r := p.spec.Respond; r != nil {
		ex.Respond(r.Status, r.ContentType, []byte(r.Body))
		return nil
	}
	return chain.Execute(ctx, ex)
}

// DeclaredDataHandler keeps the latest plugin data for one plugin.
type DeclaredDataHandler struct {
	plugin string

	mu      sync.RWMutex
	current map[string]core.PluginData
}

func newDeclaredDataHandler(s DataHandlerSpec) *DeclaredDataHandler {
	return &DeclaredDataHandler{plugin: s.Plugin, current: map[string]core.PluginData{}}
}

// PluginNamed implements core.PluginDataHandler.
func (h *DeclaredDataHandler) PluginNamed() string { return h.plugin }

// HandlePlugin stores data by id.
func (h *DeclaredDataHandler) HandlePlugin(data core.PluginData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current[data.ID] = data
}

// RemovePlugin forgets data by id.
func (h *DeclaredDataHandler) RemovePlugin(data core.PluginData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.current, data.ID)
}

// Current returns the stored plugin data sorted by id.
func (h *DeclaredDataHandler) Current() []core.PluginData {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]core.PluginData, 0, len(h.current))
	for _, d := range h.current {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Destroy drops all stored data.
func (h *DeclaredDataHandler) Destroy() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = map[string]core.PluginData{}
	return nil
}

// DeclaredMetaDataHandler keeps the metadata of one RPC type keyed by path.
type DeclaredMetaDataHandler struct {
	rpcType string

	mu    sync.RWMutex
	paths map[string]core.MetaData
}

func newDeclaredMetaDataHandler(s MetaDataHandlerSpec) *DeclaredMetaDataHandler {
	return &DeclaredMetaDataHandler{rpcType: s.RPCType, paths: map[string]core.MetaData{}}
}

// RPCType implements core.MetaDataHandler.
func (h *DeclaredMetaDataHandler) RPCType() string { return h.rpcType }

// HandleMetaData stores md by path.
func (h *DeclaredMetaDataHandler) HandleMetaData(md core.MetaData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paths[md.Path] = md
}

// RemoveMetaData forgets md by path.
func (h *DeclaredMetaDataHandler) RemoveMetaData(md core.MetaData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.paths, md.Path)
}

// Lookup returns the metadata stored for path.
func (h *DeclaredMetaDataHandler) Lookup(path string) (core.MetaData, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	md, ok := h.paths[path]
	return md, ok
}

// Destroy drops all stored metadata.
func (h *DeclaredMetaDataHandler) Destroy() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paths = map[string]core.MetaData{}
	return nil
}

// DeclaredDecorator sets fixed attributes on exchanges of one RPC type.
type DeclaredDecorator struct {
	spec ContextDecoratorSpec
}

func newDeclaredDecorator(s ContextDecoratorSpec) *DeclaredDecorator {
	return &DeclaredDecorator{spec: s}
}

// DecoratorProperty implements core.ContextDecorator.
func (d *DeclaredDecorator) DecoratorProperty() string { return d.spec.RPCType }

// Decorate sets the declared attributes and the metadata coordinates.
func (d *DeclaredDecorator) Decorate(ex *core.Exchange, md core.MetaData) *core.Exchange {
	ex.RPCType = d.spec.RPCType
	for k, v := range d.spec.Attributes {
		ex.SetAttribute(k, v)
	}
	if md.AppName != "" {
		ex.SetAttribute("appName", md.AppName)
	}
	if md.MethodName != "" {
		ex.SetAttribute("methodName", md.MethodName)
	}
	return ex
}

// Properties is the instance of a component or support unit.
type Properties struct {
	values map[string]string
}

func newProperties(s PropertiesSpec) *Properties {
	values := make(map[string]string, len(s.Properties))
	for k, v := range s.Properties {
		values[k] = v
	}
	return &Properties{values: values}
}

// Get returns a property value.
func (p *Properties) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}
