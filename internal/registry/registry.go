// Package registry maps package keys to their active loader.
package registry

import (
	"sort"
	"sync"

	"github.com/opmodel/extplugin/internal/archive"
	"github.com/opmodel/extplugin/internal/loader"
	"github.com/opmodel/extplugin/internal/unit"
)

// Entry is the active loader for one package key.
type Entry struct {
	Key     string
	Version string
	Source  string
	Loader  *loader.Loader
}

// Installation is the outcome of Install.
type Installation struct {
	// Loader is the active loader for the key after the call.
	Loader *loader.Loader

	// Previous is the loader Loader replaced. The caller closes it once the
	// new components are published.
	Previous *loader.Loader

	// Fresh is false when the active loader already had the package version.
	Fresh bool
}

// Registry holds at most one entry per package key. It is safe for
// concurrent use.
type Registry struct {
	host      *unit.Host
	definer   unit.Definer
	container loader.Destroyer

	mu      sync.Mutex
	entries map[string]Entry
}

// New creates an empty registry whose loaders fall back to host.
func New(host *unit.Host, definer unit.Definer, container loader.Destroyer) *Registry {
	return &Registry{
		host:      host,
		definer:   definer,
		container: container,
		entries:   map[string]Entry{},
	}
}

// NewLoader constructs a loader for pkg without installing it.
func (r *Registry) NewLoader(pkg *archive.Package) *loader.Loader {
	return loader.New(pkg, r.host, r.definer, r.container)
}

// Active returns the entry for key.
func (r *Registry) Active(key string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	return e, ok
}

// Install makes a loader for pkg the active entry of its key, unless the
// active entry already has the same version.
func (r *Registry) Install(pkg *archive.Package) Installation {
	key := pkg.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.entries[key]
	if ok && prev.Loader.VersionMatches(pkg.Version) {
		return Installation{Loader: prev.Loader}
	}

	l := r.NewLoader(pkg)
	r.entries[key] = Entry{
		Key:     key,
		Version: pkg.Version,
		Source:  pkg.SourcePath,
		Loader:  l,
	}
	return Installation{Loader: l, Previous: prev.Loader, Fresh: true}
}

// Restore makes prev the active entry of its key again, provided failed is
// still the active loader. It reports whether the entry was restored.
func (r *Registry) Restore(prev, failed *loader.Loader) bool {
	key := prev.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.entries[key]
	if !ok || cur.Loader != failed {
		return false
	}
	r.entries[key] = Entry{
		Key:     key,
		Version: prev.Version(),
		Source:  prev.Package().SourcePath,
		Loader:  prev,
	}
	return true
}

// Entries returns a snapshot of all entries sorted by key.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
