// Package service orchestrates package loading: the periodic scan of a
// package source, on-demand uploads, and publication of promoted components
// into the live pipeline.
package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opmodel/extplugin/internal/archive"
	"github.com/opmodel/extplugin/internal/core"
	"github.com/opmodel/extplugin/internal/output"
	"github.com/opmodel/extplugin/internal/pipeline"
	"github.com/opmodel/extplugin/internal/promoter"
	"github.com/opmodel/extplugin/internal/registry"
	"github.com/opmodel/extplugin/internal/source"
)

// Defaults for Config fields left at zero.
const (
	DefaultThreadCount = 1
	DefaultInterval    = 300 * time.Second
	DefaultLoadTimeout = 30 * time.Second
)

// Config controls the periodic scan.
type Config struct {
	// Enabled turns the periodic scan on.
	Enabled bool

	// ThreadCount bounds how many packages one scan loads in parallel.
	ThreadCount int

	// InitialDelay is the wait before the first scan.
	InitialDelay time.Duration

	// Interval is the time between scans.
	Interval time.Duration

	// LoadTimeout bounds reading one package.
	LoadTimeout time.Duration
}

// PluginSink receives published plugins.
type PluginSink interface {
	PutExtPlugins(plugins []core.Plugin)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Registry   *registry.Registry
	Promoter   *promoter.Promoter
	Dispatcher PluginSink
	Consumers  []pipeline.HandlerConsumer

	// Source is scanned periodically. It may be nil when only uploads are used.
	Source source.Source
}

// Service loads packages and publishes their components.
type Service struct {
	cfg  Config
	deps Deps

	scanning atomic.Bool
	pending  atomic.Bool
	wg       sync.WaitGroup

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// New creates a service.
func New(cfg Config, deps Deps) *Service {
	if cfg.ThreadCount <= 0 {
		cfg.ThreadCount = DefaultThreadCount
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}
	return &Service{cfg: cfg, deps: deps, keyLocks: map[string]*sync.Mutex{}}
}

// Start begins the periodic scan in the background when it is enabled.
// The scan stops when ctx is done; Wait blocks until it has.
func (s *Service) Start(ctx context.Context) {
	if !s.cfg.Enabled || s.deps.Source == nil {
		output.Info("ext plugin scan disabled")
		return
	}

	output.Info("ext plugin scan scheduled",
		"source", s.deps.Source.String(),
		"initialDelay", s.cfg.InitialDelay,
		"interval", s.cfg.Interval,
		"threads", s.cfg.ThreadCount,
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Wait blocks until the periodic scan started by Start has stopped.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) run(ctx context.Context) {
	delay := time.NewTimer(s.cfg.InitialDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}

	s.ScanOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ScanOnce(ctx)
		}
	}
}

// ScanOnce loads every candidate of the source and returns the promoted
// components of the packages that changed. A scan requested while another
// is running is coalesced into one more pass of the running scan.
// Failures are logged per package.
func (s *Service) ScanOnce(ctx context.Context) []core.Component {
	if s.deps.Source == nil {
		return nil
	}
	if !s.scanning.CompareAndSwap(false, true) {
		s.pending.Store(true)
		output.Debug("ext plugin scan already running, queued another pass")
		return nil
	}

	var all []core.Component
	for {
		s.pending.Store(false)
		all = append(all, s.scan(ctx)...)
		if s.pending.Load() && ctx.Err() == nil {
			continue
		}
		s.scanning.Store(false)
		// A request may have landed between the check and the release.
		if !s.pending.Load() || ctx.Err() != nil || !s.scanning.CompareAndSwap(false, true) {
			return all
		}
	}
}

func (s *Service) scan(ctx context.Context) []core.Component {
	candidates, err := s.deps.Source.Candidates(ctx)
	if err != nil {
		output.Error("listing ext plugin packages", "source", s.deps.Source.String(), "err", err)
		return nil
	}

	pkgs := make([]*archive.Package, len(candidates))
	var read errgroup.Group
	read.SetLimit(s.cfg.ThreadCount)
	for i, c := range candidates {
		read.Go(func() error {
			pkgs[i] = s.readCandidate(ctx, c)
			return nil
		})
	}
	_ = read.Wait()

	var (
		mu  sync.Mutex
		all []core.Component
	)
	var load errgroup.Group
	load.SetLimit(s.cfg.ThreadCount)
	for _, pkg := range latestPerKey(pkgs) {
		load.Go(func() error {
			components := s.process(pkg)
			mu.Lock()
			all = append(all, components...)
			mu.Unlock()
			return nil
		})
	}
	_ = load.Wait()
	return all
}

// latestPerKey drops unreadable packages and keeps, for each key, the
// package listed last. Packages without identity pass through.
func latestPerKey(pkgs []*archive.Package) []*archive.Package {
	last := map[string]int{}
	for i, pkg := range pkgs {
		if pkg == nil || pkg.IsEmpty() {
			continue
		}
		if j, ok := last[pkg.Key()]; ok {
			output.Warn("several packages share a key, using the last one",
				"key", pkg.Key(), "ignored", pkgs[j].SourcePath, "used", pkg.SourcePath)
		}
		last[pkg.Key()] = i
	}

	out := make([]*archive.Package, 0, len(pkgs))
	for i, pkg := range pkgs {
		if pkg == nil {
			continue
		}
		if !pkg.IsEmpty() && last[pkg.Key()] != i {
			continue
		}
		out = append(out, pkg)
	}
	return out
}

func (s *Service) readCandidate(ctx context.Context, c source.Candidate) *archive.Package {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()

	rc, err := c.Open(ctx)
	if err != nil {
		output.Error("opening ext plugin package", "package", c.Name, "err", err)
		return nil
	}
	defer rc.Close()

	pkg, err := archive.ParseContext(ctx, rc)
	if err != nil {
		output.Error("parsing ext plugin package", "package", c.Name, "err", err)
		return nil
	}
	pkg.SourcePath = c.Name
	return pkg
}

// LoadUploaded decodes a base64 package payload and loads it. It returns
// an empty result when the payload is unreadable or the version is
// already active.
func (s *Service) LoadUploaded(ctx context.Context, payload string) []core.Component {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		output.Error("decoding uploaded package", "err", err)
		return nil
	}
	return s.LoadPackage(ctx, bytes.NewReader(data))
}

// LoadPackage parses and loads one package stream.
func (s *Service) LoadPackage(ctx context.Context, r io.Reader) []core.Component {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()

	pkg, err := archive.ParseContext(ctx, r)
	if err != nil {
		output.Error("parsing uploaded package", "err", err)
		return nil
	}
	return s.process(pkg)
}

// process installs pkg and, when it is new for its key, promotes and
// publishes its components before closing the loader it replaced.
func (s *Service) process(pkg *archive.Package) []core.Component {
	if pkg.IsEmpty() {
		output.Warn("package has no "+archive.MetadataFile+", skipping", "package", pkg.SourcePath)
		return nil
	}

	unlock := s.lockKey(pkg.Key())
	defer unlock()

	log := output.PackageLogger(pkg.Key())
	inst := s.deps.Registry.Install(pkg)
	if !inst.Fresh {
		log.Info("same version already loaded, not reloading", "version", pkg.Version)
		return nil
	}

	components := inst.Loader.LoadPublishable(s.deps.Promoter)
	if len(components) == 0 && inst.Previous != nil && s.deps.Registry.Restore(inst.Previous, inst.Loader) {
		inst.Loader.Close()
		log.Warn("new version promoted no components, keeping previous", "version", pkg.Version, "active", inst.Previous.Version())
		return nil
	}
	s.publish(components)

	if inst.Previous != nil {
		inst.Previous.Close()
		log.Info("replaced package", "from", inst.Previous.Version(), "to", pkg.Version, "components", len(components))
	} else {
		log.Info("loaded package", "version", pkg.Version, "components", len(components))
	}
	return components
}

func (s *Service) publish(components []core.Component) {
	var (
		plugins  []core.Plugin
		handlers []core.Component
	)
	for _, c := range components {
		if p, ok := c.Plugin(); ok {
			plugins = append(plugins, p)
			continue
		}
		if c.IsExtendDataHandler() {
			handlers = append(handlers, c)
		}
	}

	if len(plugins) > 0 && s.deps.Dispatcher != nil {
		s.deps.Dispatcher.PutExtPlugins(plugins)
	}
	if len(handlers) > 0 {
		for _, consumer := range s.deps.Consumers {
			consumer.PutExtendDataHandlers(handlers)
		}
	}
}

// lockKey serialises package sequences for one key.
func (s *Service) lockKey(key string) func() {
	s.mu.Lock()
	l, ok := s.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.keyLocks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Entries returns the active registry entries.
func (s *Service) Entries() []registry.Entry {
	return s.deps.Registry.Entries()
}
