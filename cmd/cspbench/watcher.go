package main

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
)

var watcherLogger = NewColorLogger("[WATCHER] ", color.New(color.FgBlue, color.Bold))

// ManifestWatcher re-runs the suite when the manifest file changes. Editors
// tend to fire several write events per save, so changes are debounced.
type ManifestWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func()
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewManifestWatcher(path string, onChange func()) (*ManifestWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files on save and
	// the watch would die with the old inode.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	w := &ManifestWatcher{
		watcher:  watcher,
		path:     abs,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *ManifestWatcher) loop() {
	defer w.wg.Done()
	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			watcherLogger.Verbosef("manifest event: %s", event.Op)
			pending = time.After(250 * time.Millisecond)
		case <-pending:
			pending = nil
			watcherLogger.Printf("manifest changed, re-running suite")
			w.onChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			watcherLogger.Errorf("watch error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *ManifestWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
		w.wg.Wait()
	})
}
