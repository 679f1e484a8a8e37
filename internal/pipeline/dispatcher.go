// Package pipeline holds the live plugin chain and the handler consumers
// that published components are delivered to.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/opmodel/extplugin/internal/core"
	"github.com/opmodel/extplugin/internal/output"
)

// Dispatcher runs exchanges through the current plugin list. Readers never
// block: the list is replaced as a whole on every change.
type Dispatcher struct {
	mu      sync.Mutex
	plugins atomic.Pointer[[]core.Plugin]
}

// NewDispatcher creates a dispatcher with an initial plugin list.
func NewDispatcher(plugins ...core.Plugin) *Dispatcher {
	d := &Dispatcher{}
	list := sortByOrder(append([]core.Plugin(nil), plugins...))
	d.plugins.Store(&list)
	return d
}

// PutExtPlugins merges plugins into the live list. A plugin replaces the
// published plugin with the same name; other plugins are appended. The
// result is ordered by Order.
func (d *Dispatcher) PutExtPlugins(plugins []core.Plugin) {
	if len(plugins) == 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	current := *d.plugins.Load()
	next := make([]core.Plugin, len(current), len(current)+len(plugins))
	copy(next, current)

	for _, p := range plugins {
		replaced := false
		for i, existing := range next {
			if existing.Named() == p.Named() {
				next[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			next = append(next, p)
		}
		output.Debug("published plugin", "plugin", p.Named(), "order", p.Order(), "replaced", replaced)
	}

	next = sortByOrder(next)
	d.plugins.Store(&next)
}

// Plugins returns the current plugin list.
func (d *Dispatcher) Plugins() []core.Plugin {
	list := *d.plugins.Load()
	return append([]core.Plugin(nil), list...)
}

// Execute runs ex through the current plugin list.
func (d *Dispatcher) Execute(ctx context.Context, ex *core.Exchange) error {
	c := &chain{plugins: *d.plugins.Load()}
	return c.Execute(ctx, ex)
}

// chain walks one snapshot of the plugin list.
type chain struct {
	plugins []core.Plugin
	index   int
}

func (c *chain) Execute(ctx context.Context, ex *core.Exchange) error {
	for c.index < len(c.plugins) {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := c.plugins[c.index]
		c.index++
		if p.Skip(ex) {
			continue
		}
		return p.Execute(ctx, ex, c)
	}
	return nil
}

func sortByOrder(plugins []core.Plugin) []core.Plugin {
	sort.SliceStable(plugins, func(i, j int) bool {
		return plugins[i].Order() < plugins[j].Order()
	})
	return plugins
}
