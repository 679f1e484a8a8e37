package core

import "context"

// Chain continues dispatch to the next plugin.
type Chain interface {
	Execute(ctx context.Context, ex *Exchange) error
}

// ChainFunc adapts a function to Chain.
type ChainFunc func(ctx context.Context, ex *Exchange) error

// Execute calls f.
func (f ChainFunc) Execute(ctx context.Context, ex *Exchange) error {
	return f(ctx, ex)
}

// Plugin handles requests in the dispatch chain.
type Plugin interface {
	// Named returns the plugin name. Publishing replaces a plugin with the same name.
	Named() string

	// Order positions the plugin in the chain, ascending.
	Order() int

	// Skip reports whether the plugin should be bypassed for ex.
	Skip(ex *Exchange) bool

	// Execute handles ex and calls chain to continue.
	Execute(ctx context.Context, ex *Exchange, chain Chain) error
}

// PluginDataHandler receives plugin data changes for one plugin.
type PluginDataHandler interface {
	PluginNamed() string
	HandlePlugin(data PluginData)
	RemovePlugin(data PluginData)
}

// MetaDataHandler receives metadata changes for one RPC type.
type MetaDataHandler interface {
	RPCType() string
	HandleMetaData(md MetaData)
	RemoveMetaData(md MetaData)
}

// ContextDecorator enriches an exchange for one RPC type.
type ContextDecorator interface {
	DecoratorProperty() string
	Decorate(ex *Exchange, md MetaData) *Exchange
}

// Destroyer is implemented by instances that release resources when the
// container destroys them.
type Destroyer interface {
	Destroy() error
}
