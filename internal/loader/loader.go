// Package loader provides the per-package isolated loader.
//
// A Loader defines the units of exactly one package on demand. Names the
// package does not carry are delegated to the host; names the host already
// provides are never redefined locally.
package loader

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/opmodel/extplugin/internal/archive"
	"github.com/opmodel/extplugin/internal/core"
	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/output"
	"github.com/opmodel/extplugin/internal/promoter"
	"github.com/opmodel/extplugin/internal/unit"
)

// Destroyer tears down container registrations owned by a resolver.
type Destroyer interface {
	Destroy(name string, owner unit.Resolver) error
}

// Loader is the isolated loader of one package. It is safe for concurrent use.
type Loader struct {
	pkg       *archive.Package
	host      *unit.Host
	definer   unit.Definer
	container Destroyer
	log       *log.Logger

	cache sync.Map // unit name -> *unit.Type
	mu    sync.Mutex

	closeOnce sync.Once
	closed    bool
}

// New creates a loader for pkg that falls back to host and defines units
// with definer. Close destroys registrations in container.
func New(pkg *archive.Package, host *unit.Host, definer unit.Definer, container Destroyer) *Loader {
	return &Loader{
		pkg:       pkg,
		host:      host,
		definer:   definer,
		container: container,
		log:       output.PackageLogger(pkg.Key()),
	}
}

// Resolve returns the unit type for name.
func (l *Loader) Resolve(name string) (*unit.Type, error) {
	src, ok := l.pkg.Units[name]
	if !ok {
		return l.host.Resolve(name)
	}

	if t, ok := l.cache.Load(name); ok {
		return t.(*unit.Type), nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.cache.Load(name); ok {
		return t.(*unit.Type), nil
	}
	if l.host.Provides(name) {
		return nil, fmt.Errorf("%w: %s is provided by the host", oerrors.ErrDuplicateUnit, name)
	}

	t, err := l.definer.Define(name, l.pkg.Key(), src)
	if err != nil {
		return nil, err
	}
	l.cache.Store(name, t)
	return t, nil
}

// Cached reports whether name has been defined by this loader.
func (l *Loader) Cached(name string) bool {
	_, ok := l.cache.Load(name)
	return ok
}

// link resolves every unit t requires, transitively.
func (l *Loader) link(t *unit.Type) error {
	seen := map[string]bool{t.Name: true}
	queue := append([]string(nil), t.Requires...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true

		dep, err := l.Resolve(name)
		if err != nil {
			return fmt.Errorf("linking %s: %w", t.Name, err)
		}
		queue = append(queue, dep.Requires...)
	}
	return nil
}

// LoadPublishable registers every eligible unit of the package and returns
// the instances that play a gateway role. Units that fail to resolve, link,
// register or instantiate are logged and skipped.
func (l *Loader) LoadPublishable(p *promoter.Promoter) []core.Component {
	var registered []string
	for _, name := range l.pkg.UnitNames() {
		t, err := l.Resolve(name)
		if err != nil {
			l.log.Warn("skipping unit", "unit", name, "err", err)
			continue
		}
		if err := l.link(t); err != nil {
			l.log.Warn("skipping unit", "unit", name, "err", err)
			continue
		}

		regName, err := p.Register(name, l)
		if err != nil {
			l.log.Warn("skipping unit", "unit", name, "err", err)
			continue
		}
		if regName == "" {
			l.log.Debug("unit not eligible for promotion", "unit", name, "kind", t.Kind)
			continue
		}
		registered = append(registered, regName)
	}

	components := make([]core.Component, 0, len(registered))
	for _, name := range registered {
		inst, err := p.Instantiate(name)
		if err != nil {
			l.log.Warn("skipping unit", "unit", name, "err", err)
			continue
		}
		c := p.Classify(name, inst)
		if c.Kind == core.KindNone {
			l.log.Debug("registered component plays no gateway role", "unit", name)
			continue
		}
		l.log.Debug("promoted unit", "unit", name, "kind", c.Kind)
		components = append(components, c)
	}
	return components
}

// VersionMatches reports whether the package version equals version exactly.
func (l *Loader) VersionMatches(version string) bool {
	return l.pkg.Version == version
}

// Close destroys every component this loader registered. It is idempotent
// and best effort: destruction failures are logged.
func (l *Loader) Close() {
	l.closeOnce.Do(func() {
		for _, name := range l.pkg.UnitNames() {
			if err := l.container.Destroy(name, l); err != nil {
				l.log.Warn("destroying component", "unit", name, "err", err)
			}
		}
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		l.log.Debug("loader closed", "version", l.pkg.Version)
	})
}

// Closed reports whether Close has run.
func (l *Loader) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Key returns the package key.
func (l *Loader) Key() string { return l.pkg.Key() }

// Version returns the package version.
func (l *Loader) Version() string { return l.pkg.Version }

// Package returns the wrapped package.
func (l *Loader) Package() *archive.Package { return l.pkg }

// Units returns the sorted unit names of the package.
func (l *Loader) Units() []string { return l.pkg.UnitNames() }
