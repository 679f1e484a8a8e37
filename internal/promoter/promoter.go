// Package promoter decides which units become live components, registers
// them in the component container and classifies their instances.
package promoter

import (
	"errors"
	"fmt"

	"github.com/opmodel/extplugin/internal/core"
	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/unit"
)

// Container is the component container promoted units are registered into.
type Container interface {
	Exists(name string) bool
	Get(name string) (any, error)
	Register(name string, typ *unit.Type, owner unit.Resolver) (string, error)
	Destroy(name string, owner unit.Resolver) error
}

// Promoter registers eligible units and classifies their instances.
type Promoter struct {
	container Container
}

// New creates a promoter on c.
func New(c Container) *Promoter {
	return &Promoter{container: c}
}

// Container returns the underlying container.
func (p *Promoter) Container() Container {
	return p.container
}

// Register resolves name through resolver and registers it if the unit
// belongs to a capability set or carries the opt-in marker. It returns the
// registered name, or "" with a nil error for units that are not eligible.
// Registering the same name for the same resolver again returns the
// existing registration.
func (p *Promoter) Register(name string, resolver unit.Resolver) (string, error) {
	typ, err := resolver.Resolve(name)
	if err != nil {
		return "", err
	}
	if !typ.Eligible() {
		return "", nil
	}

	registered, err := p.container.Register(name, typ, resolver)
	if err != nil {
		if errors.Is(err, oerrors.ErrRegistration) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %w", oerrors.ErrRegistration, name, err)
	}
	return registered, nil
}

// Instantiate returns the container's instance registered under name.
func (p *Promoter) Instantiate(name string) (any, error) {
	return p.container.Get(name)
}

// Classify reports which capability instance satisfies, checked in the
// order plugin, data handler, metadata handler, context decorator.
func (p *Promoter) Classify(name string, instance any) core.Component {
	c := core.Component{Name: name, Kind: core.KindNone, Instance: instance}
	switch instance.(type) {
	case core.Plugin:
		c.Kind = core.KindPlugin
	case core.PluginDataHandler:
		c.Kind = core.KindDataHandler
	case core.MetaDataHandler:
		c.Kind = core.KindMetaDataHandler
	case core.ContextDecorator:
		c.Kind = core.KindContextDecorator
	}
	return c
}

// Promote registers, instantiates and classifies one unit. The boolean is
// false when the unit is not eligible.
func (p *Promoter) Promote(name string, resolver unit.Resolver) (core.Component, bool, error) {
	registered, err := p.Register(name, resolver)
	if err != nil || registered == "" {
		return core.Component{}, false, err
	}
	inst, err := p.Instantiate(registered)
	if err != nil {
		return core.Component{}, false, err
	}
	return p.Classify(registered, inst), true, nil
}
