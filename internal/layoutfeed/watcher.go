package layoutfeed

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultPattern matches layout files anywhere under the watched directory
const DefaultPattern = "**/*.layout.yaml"

// DefaultDebounce coalesces editor save bursts into one reload
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads the feed whenever a matching layout file changes
type Watcher struct {
	root     string
	pattern  string
	feed     *Feed
	watcher  *fsnotify.Watcher
	Debounce time.Duration
	// MaxPanels bounds every loaded layout; zero means grid.MaxPanels
	MaxPanels int
}

// NewWatcher watches root and every directory below it
func NewWatcher(root, pattern string, feed *Feed) (*Watcher, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid layout pattern %q", pattern)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		pattern:  pattern,
		feed:     feed,
		watcher:  fsw,
		Debounce: DefaultDebounce,
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree adds dir and its subdirectories, skipping hidden ones
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Match reports whether path is a layout file under the watched root
func (w *Watcher) Match(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	ok, err := doublestar.Match(w.pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

// Scan loads the existing layout files and publishes the last one in path order
func (w *Watcher) Scan() error {
	matches, err := doublestar.Glob(os.DirFS(w.root), w.pattern)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", w.root, err)
	}
	if len(matches) == 0 {
		return nil
	}
	sort.Strings(matches)

	spec, err := Load(filepath.Join(w.root, filepath.FromSlash(matches[len(matches)-1])), w.MaxPanels)
	if err != nil {
		return err
	}
	w.feed.Set(spec)
	return nil
}

// Run processes file events until ctx is cancelled or the watcher is closed
func (w *Watcher) Run(ctx context.Context) error {
	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer
	defer debounce.Stop()

	var pending []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						log.Printf("[Layout] Failed to watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !w.Match(event.Name) {
				continue
			}

			pending = append(pending, event.Name)
			debounce.Reset(w.Debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Println("[Layout] Watcher error:", err)

		case <-debounce.C:
			paths := pending
			pending = nil
			if len(paths) > 0 {
				w.reload(paths[len(paths)-1])
			}
		}
	}
}

// reload publishes the most recently changed file. A file that fails to parse leaves the
// current layout in place.
func (w *Watcher) reload(path string) {
	spec, err := Load(path, w.MaxPanels)
	if err != nil {
		log.Printf("[Layout] Ignoring %s: %v", path, err)
		return
	}
	log.Printf("[Layout] %s -> %s", filepath.Base(path), spec)
	w.feed.Set(spec)
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
