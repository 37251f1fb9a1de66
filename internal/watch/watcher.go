// SPDX-License-Identifier: MPL-2.0

// Package watch reruns dependency installation when the manifest changes.
//
// A Watcher observes a project directory with fsnotify, keeps the events
// whose relative path matches one of its doublestar patterns, and calls
// OnChange once the events have been quiet for the debounce period. A
// callback that is still running when the next one is due is not started
// twice; the pending changes are retried after another debounce period.
package watch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce applies when Config.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

// defaultIgnores never trigger a reinstall.
var defaultIgnores = []string{
	"**/.git/**",
	"**/__pycache__/**",
	"**/site-packages/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Dir is the project directory. Defaults to the working directory.
		Dir string
		// Patterns select the files that matter, relative to Dir, e.g.
		// "requirements.txt" or "requirements/*.txt". Empty matches everything.
		Patterns []string
		// Ignore adds to the built-in ignore patterns. The environment
		// directory belongs here.
		Ignore []string
		// Debounce is the quiet period before OnChange fires.
		Debounce time.Duration
		// OnChange receives the changed paths relative to Dir, sorted.
		OnChange func(ctx context.Context, changed []string) error
		// Logger defaults to log.Default().
		Logger *log.Logger
	}

	// Watcher is single-use: Run may be called once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		debounce time.Duration
		dir      string
		logger   *log.Logger
		started  atomic.Bool
	}
)

// New validates cfg and registers every non-ignored directory under Dir.
func New(cfg Config) (*Watcher, error) {
	dir := cfg.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		dir = wd
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve directory: %w", err)
	}

	for _, pats := range [][]string{cfg.Patterns, cfg.Ignore} {
		for _, pat := range pats {
			if !doublestar.ValidatePattern(pat) {
				return nil, fmt.Errorf("watch: invalid pattern %q: %w", pat, doublestar.ErrBadPattern)
			}
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: debounce,
		dir:      absDir,
		logger:   logger,
	}

	if err := w.addTree(); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled, which is a clean exit.
// Fatal watcher errors are returned.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		busy    atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !busy.CompareAndSwap(false, true) {
			w.logger.Warn("previous run still in progress, retrying later")
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer busy.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}

		w.logger.Debug("change detected", "paths", changed)
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("callback failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			rel := w.rel(evt.Name)
			if w.ignored(rel) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.addIfDir(evt.Name, rel)
			}
			if !w.matches(rel) {
				continue
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// addTree registers Dir and its non-ignored subdirectories. Unreadable
// directories are skipped with a warning.
func (w *Watcher) addTree() error {
	err := filepath.WalkDir(w.dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "err", walkErr)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel := w.rel(path)
		if rel != "." && (w.ignored(rel) || w.ignored(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", w.dir, err)
	}
	return nil
}

func (w *Watcher) addIfDir(path, rel string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.ignored(rel+"/") {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("add new directory", "path", path, "err", err)
	}
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) ignored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matches(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func isFatal(err error) bool {
	for _, errno := range fatalErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
