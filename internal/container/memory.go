// Package container provides the in-memory component container promoted
// units are registered into.
//
// Every registration has an owner, the resolver that defined its type.
// Registering a name that a different owner holds supersedes the old
// registration: the name points at the new generation immediately while the
// old instance stays alive until its owner destroys it. Destroying the
// newer registration first puts the superseded one back in place.
package container

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/opmodel/extplugin/internal/core"
	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/unit"
)

// Registration describes a registered component.
type Registration struct {
	Name         string    `json:"name"`
	Kind         core.Kind `json:"kind"`
	Origin       string    `json:"origin"`
	Instantiated bool      `json:"instantiated"`
}

type entry struct {
	name     string
	typ      *unit.Type
	owner    unit.Resolver
	instance any
	seq      uint64
}

// Memory is a component container held in process memory. It is safe for
// concurrent use.
type Memory struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]*entry
	retired map[unit.Resolver][]*entry
}

// NewMemory creates an empty container.
func NewMemory() *Memory {
	return &Memory{
		entries: map[string]*entry{},
		retired: map[unit.Resolver][]*entry{},
	}
}

// Exists reports whether a component is registered under name.
func (m *Memory) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[name]
	return ok
}

// Owner returns the owner of the registration under name.
func (m *Memory) Owner(name string) (unit.Resolver, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	if !ok {
		return nil, false
	}
	return e.owner, true
}

// Register registers typ under name for owner and returns the registered
// name. Registering the same name for the same owner again is a no-op.
func (m *Memory) Register(name string, typ *unit.Type, owner unit.Resolver) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty component name", oerrors.ErrRegistration)
	}
	if typ == nil {
		return "", fmt.Errorf("%w: %s: nil type", oerrors.ErrRegistration, name)
	}
	if owner == nil {
		return "", fmt.Errorf("%w: %s: nil owner", oerrors.ErrRegistration, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.entries[name]; ok {
		if prev.owner == owner {
			return name, nil
		}
		m.retired[prev.owner] = append(m.retired[prev.owner], prev)
	}
	m.seq++
	m.entries[name] = &entry{name: name, typ: typ, owner: owner, seq: m.seq}
	return name, nil
}

// Get returns the singleton instance registered under name, creating it on
// first use.
func (m *Memory) Get(name string) (any, error) {
	m.mu.Lock()
	e, ok := m.entries[name]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: component %q", oerrors.ErrNotFound, name)
	}
	if e.instance != nil {
		inst := e.instance
		m.mu.Unlock()
		return inst, nil
	}
	typ := e.typ
	m.mu.Unlock()

	inst, err := typ.New()
	if err != nil {
		return nil, fmt.Errorf("instantiating %s: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e.instance == nil {
		e.instance = inst
		return inst, nil
	}
	// Lost the race to a concurrent Get.
	_ = destroyInstance(inst)
	return e.instance, nil
}

// Destroy removes the registration under name held by owner, including a
// superseded one, and destroys its instance. When the live registration
// goes, the most recent registration it superseded is reinstated. Names
// the owner does not hold are ignored.
func (m *Memory) Destroy(name string, owner unit.Resolver) error {
	var victims []*entry

	m.mu.Lock()
	if e, ok := m.entries[name]; ok && e.owner == owner {
		delete(m.entries, name)
		victims = append(victims, e)
		m.reinstate(name, owner)
	}
	if old := m.retired[owner]; len(old) > 0 {
		kept := old[:0]
		for _, e := range old {
			if e.name == name {
				victims = append(victims, e)
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(m.retired, owner)
		} else {
			m.retired[owner] = kept
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, e := range victims {
		if err := destroyInstance(e.instance); err != nil {
			errs = append(errs, fmt.Errorf("destroying %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// reinstate moves the newest superseded registration of name not held by
// owner back into the live set. m.mu must be held.
func (m *Memory) reinstate(name string, owner unit.Resolver) {
	var (
		best      *entry
		bestOwner unit.Resolver
	)
	for o, old := range m.retired {
		if o == owner {
			continue
		}
		for _, e := range old {
			if e.name == name && (best == nil || e.seq > best.seq) {
				best, bestOwner = e, o
			}
		}
	}
	if best == nil {
		return
	}

	kept := m.retired[bestOwner][:0]
	for _, e := range m.retired[bestOwner] {
		if e != best {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(m.retired, bestOwner)
	} else {
		m.retired[bestOwner] = kept
	}
	m.entries[name] = best
}

// Lookup returns the registration under name.
func (m *Memory) Lookup(name string) (Registration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	if !ok {
		return Registration{}, false
	}
	return e.registration(), true
}

// Registrations returns all current registrations sorted by name.
func (m *Memory) Registrations() []Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Registration, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.registration())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered names sorted.
func (m *Memory) Names() []string {
	regs := m.Registrations()
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = r.Name
	}
	return names
}

// Retired returns the number of superseded registrations awaiting their
// owner's teardown.
func (m *Memory) Retired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, old := range m.retired {
		n += len(old)
	}
	return n
}

func (e *entry) registration() Registration {
	return Registration{
		Name:         e.name,
		Kind:         e.typ.Kind,
		Origin:       e.typ.Origin,
		Instantiated: e.instance != nil,
	}
}

func destroyInstance(inst any) error {
	if d, ok := inst.(core.Destroyer); ok {
		return d.Destroy()
	}
	return nil
}
