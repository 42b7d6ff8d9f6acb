package scanner

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes root for external .py changes and re-dispatches the
// affected file through the Scanner. Unlike internal/starlark/tester's
// Watcher, it tracks no forward/reverse load-dependency graph: Python
// fixture resolution has no load()-statement equivalent, so a changed
// file only ever needs its own re-analysis via Scanner.ScanFile, never a
// transitive invalidation of files that depend on it.
type Watcher struct {
	scanner *Scanner
	fsw     *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a Watcher rooted at root, adding root and every
// non-denylisted subdirectory to the underlying fsnotify watch set.
// Grounded on internal/starlark/tester/watcher.go's NewWatcher/Add, with
// the recursive add inlined here instead of deferred to first use.
func NewWatcher(scanner *Scanner, root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{scanner: scanner, fsw: fsw, done: make(chan struct{})}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (defaultDenylist[name] || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks, dispatching fsnotify events to the scanner until ctx is
// canceled or Close is called. Grounded on watcher.go's run/handleEvent,
// simplified to a single re-analyze-or-remove branch.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("pyfixture: watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !IsFixtureSourceFile(name) {
		return
	}

	switch {
	case event.Op&fsnotify.Remove != 0 || event.Op&fsnotify.Rename != 0:
		w.scanner.RemoveFile(event.Name)
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		if err := w.scanner.ScanFile(ctx, event.Name); err != nil {
			log.Printf("pyfixture: re-analyzing %s: %v", event.Name, err)
		}
	}
}

// Close stops Run and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
