// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attachment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// =============================================================================
// INBOX WATCHER
// =============================================================================

// IntakeFunc receives the path of a document that should be attached.
type IntakeFunc func(ctx context.Context, path string) error

// DefaultDebounce is how long a file must stay quiet before it is taken in.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches an inbox directory and passes every PDF that is created
// or rewritten there to an IntakeFunc. Writes are debounced so a file is
// taken in once its copy has finished.
type Watcher struct {
	dir      string
	intake   IntakeFunc
	debounce time.Duration
	logger   *zap.Logger
	onError  func(path string, err error)

	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]time.Time
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	Debounce time.Duration
	Logger   *zap.Logger

	// OnError is called when intake of a file fails.
	OnError func(path string, err error)
}

// NewWatcher creates a watcher for dir. Call Start to begin watching.
func NewWatcher(dir string, intake IntakeFunc, opts WatcherOptions) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("inbox directory is empty")
	}
	if intake == nil {
		return nil, fmt.Errorf("intake function is nil")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		dir:      dir,
		intake:   intake,
		debounce: opts.Debounce,
		logger:   opts.Logger.Named("inbox"),
		onError:  opts.OnError,
		fsw:      fsw,
		pending:  make(map[string]time.Time),
	}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Start creates the inbox directory if needed and begins watching it.
// Watching stops when ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}
	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(2)
	go w.processEvents(ctx)
	go w.processPending(ctx)

	w.logger.Info("watching inbox", zap.String("dir", w.dir))
	return nil
}

// Close stops watching and waits for the worker goroutines to exit.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
				continue
			}
			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inbox watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) processPending(ctx context.Context) {
	defer w.wg.Done()

	tick := w.debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			var ready []string

			w.mu.Lock()
			for path, changed := range w.pending {
				if now.Sub(changed) >= w.debounce {
					ready = append(ready, path)
					delete(w.pending, path)
				}
			}
			w.mu.Unlock()

			for _, path := range ready {
				w.take(ctx, path)
			}
		}
	}
}

func (w *Watcher) take(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		// Moved away or deleted before it settled.
		return
	}

	w.logger.Info("inbox document", zap.String("path", path))
	if err := w.intake(ctx, path); err != nil {
		w.logger.Warn("inbox intake failed", zap.String("path", path), zap.Error(err))
		if w.onError != nil {
			w.onError(path, err)
		}
	}
}
