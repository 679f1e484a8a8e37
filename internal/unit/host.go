package unit

import (
	"fmt"
	"sort"
	"sync"

	oerrors "github.com/opmodel/extplugin/internal/errors"
)

// Host is the registry of unit types compiled into the binary. It is the
// fallback every package loader delegates to.
type Host struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewHost creates a host providing the given types.
func NewHost(types ...*Type) (*Host, error) {
	h := &Host{types: make(map[string]*Type, len(types))}
	for _, t := range types {
		if err := h.Provide(t); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Provide adds a type to the host. Names are unique.
func (h *Host) Provide(t *Type) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("host type must have a name")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.types[t.Name]; ok {
		return fmt.Errorf("%w: host already provides %q", oerrors.ErrDuplicateUnit, t.Name)
	}
	t.Origin = OriginHost
	h.types[t.Name] = t
	return nil
}

// Provides reports whether the host has a type with the given name.
func (h *Host) Provides(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.types[name]
	return ok
}

// Resolve implements Resolver.
func (h *Host) Resolve(name string) (*Type, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	t, ok := h.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", oerrors.ErrUnitNotFound, name)
	}
	return t, nil
}

// Names returns the sorted names of all host types.
func (h *Host) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.types))
	for name := range h.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
