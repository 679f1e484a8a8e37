// Package core defines the gateway-facing capability contracts that hot-loaded
// components implement, and the values that flow between them.
//
// The capability set is closed: Plugin, PluginDataHandler, MetaDataHandler and
// ContextDecorator. A promoted Component records which one of them an instance
// satisfies.
package core
