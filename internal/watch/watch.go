// Package watch reloads a data file when it changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"

	"github.com/recera/netgraph/pkg/graphdata"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc receives the data decoded from the changed file.
type ReloadFunc func(graphdata.Data) error

// Watcher reloads one data file.
type Watcher struct {
	path     string
	reload   ReloadFunc
	log      logr.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// New watches path and calls reload with its contents after each change.
// The directory is watched rather than the file so editors that replace the
// file on save are followed.
func New(path string, reload ReloadFunc, log logr.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	return &Watcher{
		path:     abs,
		reload:   reload,
		log:      log.WithValues("file", path),
		debounce: DefaultDebounce,
		watcher:  fw,
	}, nil
}

// SetDebounce changes the settle delay. It must be called before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run reloads on change until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			pending = true
			debounce.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error(err, "watcher error")

		case <-debounce.C:
			if pending {
				pending = false
				w.load()
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// load decodes the file and hands it to reload. Errors are logged and the
// previous data stays in place.
func (w *Watcher) load() {
	d, err := graphdata.Load(w.path)
	if err != nil {
		w.log.Error(err, "reload failed")
		return
	}
	if err := w.reload(d); err != nil {
		w.log.Error(err, "data rejected")
		return
	}
	w.log.Info("data reloaded", "nodes", len(d.Nodes), "links", len(d.Links))
}
