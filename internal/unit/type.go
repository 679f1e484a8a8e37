// Package unit defines loadable code units and the host environment that
// provides compiled-in unit types.
//
// A unit is a named constructor tagged with the capability its instances
// play. Host units are Go types registered at startup. Package units are CUE
// documents compiled by a Definer when a loader first resolves them.
package unit

import (
	"fmt"

	"github.com/opmodel/extplugin/internal/core"
)

// OriginHost marks types provided by the host environment.
const OriginHost = "host"

// Constructor creates a new instance of a unit.
type Constructor func() (any, error)

// Type is a defined unit.
type Type struct {
	// Name is the fully-qualified unit name.
	Name string

	// Kind is the capability the unit declares, or core.KindNone.
	Kind core.Kind

	// Marked is the opt-in marker making a non-capability unit eligible
	// for registration in the component container.
	Marked bool

	// Requires lists unit names that must resolve before instantiation.
	Requires []string

	// Origin is OriginHost or the key of the package that defined the unit.
	Origin string

	ctor Constructor
}

// NewType creates a host type.
func NewType(name string, kind core.Kind, ctor Constructor) *Type {
	return &Type{
		Name:   name,
		Kind:   kind,
		Origin: OriginHost,
		ctor:   ctor,
	}
}

// New creates a new instance.
func (t *Type) New() (any, error) {
	if t.ctor == nil {
		return nil, fmt.Errorf("unit %q has no constructor", t.Name)
	}
	return t.ctor()
}

// Eligible reports whether the unit may be registered as a component.
func (t *Type) Eligible() bool {
	return t.Kind.IsCapability() || t.Marked
}

// Resolver resolves unit names to types.
type Resolver interface {
	Resolve(name string) (*Type, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (*Type, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(name string) (*Type, error) {
	return f(name)
}
