package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/easel/pkg/ports"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// FileWatcher signals changes to one file.
type FileWatcher struct {
	path     string
	debounce time.Duration
}

var _ ports.Watchable = (*FileWatcher)(nil)

// NewFileWatcher creates a watcher for path.
func NewFileWatcher(path string, debounce time.Duration) *FileWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FileWatcher{path: filepath.Clean(path), debounce: debounce}
}

// Watch returns a channel signaled after the file is written, created or replaced.
// The directory is watched so that editors saving through a rename are seen.
// The channel is closed when ctx is done.
func (w *FileWatcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	out := make(chan struct{}, 1)
	var (
		mu      sync.Mutex
		timer   *time.Timer
		stopped bool
	)
	notify := func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		select {
		case out <- struct{}{}:
		default:
		}
	}

	go func() {
		defer close(out)
		defer fw.Close()
		defer func() {
			mu.Lock()
			stopped = true
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				mu.Lock()
				if timer == nil {
					timer = time.AfterFunc(w.debounce, notify)
				} else {
					timer.Reset(w.debounce)
				}
				mu.Unlock()
			case _, ok := <-fw.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}

// RunWatch runs the scenario at opts.Path and runs it again each time
// opts.Source signals, until ctx is done. A change during a run cancels it.
func RunWatch(ctx context.Context, opts RunOptions) error {
	opts.Watch = true
	opts.defaults()
	changes, err := opts.Source.Watch(ctx)
	if err != nil {
		return err
	}
	printSystemMessage(opts.Stderr, "Watching '%s'.", opts.Path)

	for {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, err := RunOnce(runCtx, opts)
			done <- err
		}()

		reloaded := false
		select {
		case err := <-done:
			reportWatchRun(opts, err)
		case _, ok := <-changes:
			cancel()
			<-done
			if !ok {
				return ctx.Err()
			}
			reloaded = true
		}
		cancel()

		if !reloaded {
			printSystemMessage(opts.Stderr, "Waiting for changes...")
			if _, ok := <-changes; !ok {
				return ctx.Err()
			}
		}
		printSystemMessage(opts.Stderr, "Change detected in '%s'.", opts.Path)
	}
}

func reportWatchRun(opts RunOptions, err error) {
	switch {
	case err == nil:
		printSystemMessage(opts.Stderr, "Run passed.")
	case errors.Is(err, context.Canceled):
	default:
		printSystemMessage(opts.Stderr, "Run failed: %v", err)
	}
}
