package pipeline

import (
	"sort"
	"sync"

	"github.com/opmodel/extplugin/internal/core"
	"github.com/opmodel/extplugin/internal/output"
)

// HandlerConsumer receives published data and metadata handlers.
type HandlerConsumer interface {
	PutExtendDataHandlers(components []core.Component)
}

// HandlerSet routes plugin data and metadata events to the handlers
// published into it. Handlers published later receive the current state.
type HandlerSet struct {
	mu         sync.RWMutex
	dataByName map[string]core.PluginDataHandler
	metaByRPC  map[string]core.MetaDataHandler
	pluginData map[string]core.PluginData
	metaData   map[string]core.MetaData
}

// NewHandlerSet creates an empty handler set.
func NewHandlerSet() *HandlerSet {
	return &HandlerSet{
		dataByName: map[string]core.PluginDataHandler{},
		metaByRPC:  map[string]core.MetaDataHandler{},
		pluginData: map[string]core.PluginData{},
		metaData:   map[string]core.MetaData{},
	}
}

// PutExtendDataHandlers installs the data and metadata handlers among
// components, replacing handlers for the same plugin or RPC type.
func (h *HandlerSet) PutExtendDataHandlers(components []core.Component) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range components {
		if dh, ok := c.DataHandler(); ok {
			h.dataByName[dh.PluginNamed()] = dh
			for _, d := range h.pluginData {
				if d.Name == dh.PluginNamed() {
					dh.HandlePlugin(d)
				}
			}
			output.Debug("installed data handler", "component", c.Name, "plugin", dh.PluginNamed())
		}
		if mh, ok := c.MetaDataHandler(); ok {
			h.metaByRPC[mh.RPCType()] = mh
			for _, md := range h.metaData {
				if md.RPCType == mh.RPCType() {
					mh.HandleMetaData(md)
				}
			}
			output.Debug("installed metadata handler", "component", c.Name, "rpcType", mh.RPCType())
		}
	}
}

// OnPluginData records d and forwards it to the handler for its plugin. It
// reports whether a handler received the event.
func (h *HandlerSet) OnPluginData(d core.PluginData, removed bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if removed {
		delete(h.pluginData, d.ID)
	} else {
		h.pluginData[d.ID] = d
	}

	dh, ok := h.dataByName[d.Name]
	if !ok {
		return false
	}
	if removed {
		dh.RemovePlugin(d)
	} else {
		dh.HandlePlugin(d)
	}
	return true
}

// OnMetaData records md and forwards it to the handler for its RPC type. It
// reports whether a handler received the event.
func (h *HandlerSet) OnMetaData(md core.MetaData, removed bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if removed {
		delete(h.metaData, md.Path)
	} else {
		h.metaData[md.Path] = md
	}

	mh, ok := h.metaByRPC[md.RPCType]
	if !ok {
		return false
	}
	if removed {
		mh.RemoveMetaData(md)
	} else {
		mh.HandleMetaData(md)
	}
	return true
}

// DataHandler returns the handler installed for a plugin name.
func (h *HandlerSet) DataHandler(plugin string) (core.PluginDataHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	dh, ok := h.dataByName[plugin]
	return dh, ok
}

// MetaDataHandler returns the handler installed for an RPC type.
func (h *HandlerSet) MetaDataHandler(rpcType string) (core.MetaDataHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	mh, ok := h.metaByRPC[rpcType]
	return mh, ok
}

// Handled returns the sorted plugin names and RPC types with a handler.
func (h *HandlerSet) Handled() (plugins, rpcTypes []string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for name := range h.dataByName {
		plugins = append(plugins, name)
	}
	for rpc := range h.metaByRPC {
		rpcTypes = append(rpcTypes, rpc)
	}
	sort.Strings(plugins)
	sort.Strings(rpcTypes)
	return plugins, rpcTypes
}
