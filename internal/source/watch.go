package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/opmodel/extplugin/internal/archive"
	"github.com/opmodel/extplugin/internal/output"
)

// DefaultDebounce is the quiet period before a batch of file events fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls a trigger when package files in a directory change.
type Watcher struct {
	path     string
	debounce time.Duration
	trigger  func(ctx context.Context)
}

// NewWatcher creates a watcher on path. Bursts of events closer together
// than debounce fire trigger once.
func NewWatcher(path string, debounce time.Duration, trigger func(ctx context.Context)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{path: path, debounce: debounce, trigger: trigger}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.path); err != nil {
		return fmt.Errorf("watching %s: %w", w.path, err)
	}
	output.Debug("watching ext plugin path", "path", w.path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			output.Debug("package file changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			output.Warn("file watcher error", "path", w.path, "err", err)
		case <-timer.C:
			w.trigger(ctx)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !strings.HasSuffix(ev.Name, archive.Extension) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename)
}
