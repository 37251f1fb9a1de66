// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func quietLogger() *log.Logger { return log.New(io.Discard) }

func startWatcher(t *testing.T, cfg Config) (cancel func(), errCh <-chan error) {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	ch := make(chan error, 1)
	go func() { ch <- w.Run(ctx) }()

	// fsnotify registration is synchronous in New, but give the event loop
	// a moment to start selecting.
	time.Sleep(20 * time.Millisecond)
	return cancelFn, ch
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcherDebouncesManifestWrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "requirements.txt"), "requests\n")

	var (
		mu    sync.Mutex
		calls [][]string
	)
	done := make(chan struct{}, 1)

	cancel, errCh := startWatcher(t, Config{
		Dir:      dir,
		Patterns: []string{"requirements.txt"},
		Debounce: 100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			calls = append(calls, changed)
			mu.Unlock()
			done <- struct{}{}
			return nil
		},
	})
	defer cancel()

	for i := range 3 {
		writeFile(t, filepath.Join(dir, "requirements.txt"), fmt.Sprintf("requests==2.%d\n", i))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	// Allow a stray second callback to show up before asserting.
	time.Sleep(300 * time.Millisecond)

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("expected 1 callback, got %d: %v", len(calls), calls)
	}
	if !slices.Equal(calls[0], []string{"requirements.txt"}) {
		t.Errorf("changed = %v, want [requirements.txt]", calls[0])
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var calls atomic.Int32
	fired := make(chan []string, 4)

	cancel, errCh := startWatcher(t, Config{
		Dir:      dir,
		Patterns: []string{"requirements.txt", "requirements/*.txt"},
		Ignore:   []string{"venv/**"},
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			calls.Add(1)
			fired <- changed
			return nil
		},
	})
	defer cancel()

	writeFile(t, filepath.Join(dir, "main.py"), "print('hi')\n")
	writeFile(t, filepath.Join(dir, "venv", "requirements.txt"), "ignored\n")
	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Fatalf("expected no callback for unrelated files, got %d", n)
	}

	if err := os.Mkdir(filepath.Join(dir, "requirements"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// The new directory is registered when its create event is processed.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "requirements", "dev.txt"), "pytest\n")

	select {
	case changed := <-fired:
		if !slices.Contains(changed, "requirements/dev.txt") {
			t.Errorf("changed = %v, want requirements/dev.txt", changed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback on new sub-directory file")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestWatcherSkipIfBusy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifest := filepath.Join(dir, "requirements.txt")
	writeFile(t, manifest, "a\n")

	var (
		active  atomic.Int32
		overlap atomic.Bool
		calls   atomic.Int32
	)
	release := make(chan struct{})
	started := make(chan struct{}, 4)

	cancel, errCh := startWatcher(t, Config{
		Dir:      dir,
		Patterns: []string{"requirements.txt"},
		Debounce: 30 * time.Millisecond,
		OnChange: func(ctx context.Context, _ []string) error {
			if active.Add(1) > 1 {
				overlap.Store(true)
			}
			defer active.Add(-1)
			calls.Add(1)
			started <- struct{}{}
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		},
	})
	defer cancel()

	writeFile(t, manifest, "b\n")
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first callback")
	}

	// Changes while the first callback blocks must wait, not run concurrently.
	writeFile(t, manifest, "c\n")
	time.Sleep(200 * time.Millisecond)
	if overlap.Load() {
		t.Fatal("callbacks overlapped")
	}
	close(release)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("pending change was dropped instead of retried")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if overlap.Load() {
		t.Error("callbacks overlapped")
	}
}

func TestWatcherCallbackErrorKeepsRunning(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifest := filepath.Join(dir, "requirements.txt")
	fired := make(chan struct{}, 4)

	cancel, errCh := startWatcher(t, Config{
		Dir:      dir,
		Debounce: 30 * time.Millisecond,
		OnChange: func(context.Context, []string) error {
			fired <- struct{}{}
			return errors.New("pip exploded")
		},
	})
	defer cancel()

	for i := range 2 {
		writeFile(t, manifest, fmt.Sprintf("v%d\n", i))
		select {
		case <-fired:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for callback %d", i+1)
		}
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestWatcherRunTwice(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Dir: t.TempDir(), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	if err := w.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestWatcherInvalidPattern(t *testing.T) {
	t.Parallel()

	for _, cfg := range []Config{
		{Dir: t.TempDir(), Patterns: []string{"requirements[.txt"}},
		{Dir: t.TempDir(), Ignore: []string{"venv/{**"}},
	} {
		if _, err := New(cfg); err == nil {
			t.Errorf("New(%v) succeeded, want invalid pattern error", cfg)
		}
	}
}

func TestWatcherDefaultIgnores(t *testing.T) {
	t.Parallel()

	w := &Watcher{ignores: defaultIgnores}
	for _, rel := range []string{
		".git/HEAD",
		"pkg/__pycache__/mod.cpython-312.pyc",
		"venv/lib/python3.12/site-packages/six.py",
		"requirements.txt.swp",
		"requirements.txt~",
	} {
		if !w.ignored(rel) {
			t.Errorf("%q should be ignored by default", rel)
		}
	}
	if w.ignored("requirements.txt") {
		t.Error("requirements.txt must not be ignored")
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	for _, errno := range fatalErrnos {
		if !isFatal(fmt.Errorf("fsnotify: %w", errno)) {
			t.Errorf("wrapped %v should be fatal", errno)
		}
	}
	if isFatal(syscall.EACCES) {
		t.Error("EACCES should not be fatal")
	}
	if isFatal(errors.New("queue overflow")) {
		t.Error("generic error should not be fatal")
	}
}
