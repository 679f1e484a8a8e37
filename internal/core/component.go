package core

// Kind is the capability a promoted component plays in the gateway.
type Kind string

const (
	// KindPlugin is a request-handler plugin.
	KindPlugin Kind = "plugin"

	// KindDataHandler handles plugin data changes.
	KindDataHandler Kind = "dataHandler"

	// KindMetaDataHandler handles metadata changes.
	KindMetaDataHandler Kind = "metaDataHandler"

	// KindContextDecorator decorates the exchange before dispatch.
	KindContextDecorator Kind = "contextDecorator"

	// KindNone marks a component that plays no gateway role.
	KindNone Kind = "none"
)

// Kinds lists the capability kinds in classification order.
var Kinds = []Kind{KindPlugin, KindDataHandler, KindMetaDataHandler, KindContextDecorator}

// IsCapability reports whether k is one of the four capability kinds.
func (k Kind) IsCapability() bool {
	switch k {
	case KindPlugin, KindDataHandler, KindMetaDataHandler, KindContextDecorator:
		return true
	default:
		return false
	}
}

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// Component is the result of promoting a unit instance. Exactly one kind applies.
// The component container owns Instance; Component only references it by Name.
type Component struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Instance any    `json:"-"`
}

// Plugin returns the instance as a Plugin when Kind is KindPlugin.
func (c Component) Plugin() (Plugin, bool) {
	if c.Kind != KindPlugin {
		return nil, false
	}
	p, ok := c.Instance.(Plugin)
	return p, ok
}

// DataHandler returns the instance as a PluginDataHandler when Kind is KindDataHandler.
func (c Component) DataHandler() (PluginDataHandler, bool) {
	if c.Kind != KindDataHandler {
		return nil, false
	}
	h, ok := c.Instance.(PluginDataHandler)
	return h, ok
}

// MetaDataHandler returns the instance as a MetaDataHandler when Kind is KindMetaDataHandler.
func (c Component) MetaDataHandler() (MetaDataHandler, bool) {
	if c.Kind != KindMetaDataHandler {
		return nil, false
	}
	h, ok := c.Instance.(MetaDataHandler)
	return h, ok
}

// Decorator returns the instance as a ContextDecorator when Kind is KindContextDecorator.
func (c Component) Decorator() (ContextDecorator, bool) {
	if c.Kind != KindContextDecorator {
		return nil, false
	}
	d, ok := c.Instance.(ContextDecorator)
	return d, ok
}

// IsExtendDataHandler reports whether the component consumes data or metadata changes.
func (c Component) IsExtendDataHandler() bool {
	return c.Kind == KindDataHandler || c.Kind == KindMetaDataHandler
}
