package safety

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// RulesWatcher reloads the domain-rule document into an engine when the
// file changes. Editors and atomic writers generate bursts of events, so
// changes are debounced before reloading.
type RulesWatcher struct {
	engine *Engine
	path   string

	watcher *fsnotify.Watcher
	logger  *log.Logger

	debounceWindow time.Duration

	mu    sync.Mutex
	timer *time.Timer
	dirty bool

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewRulesWatcher creates a watcher that keeps engine's domain rules in
// sync with the document at path. The containing directory is watched so
// rename-based atomic writes are observed.
func NewRulesWatcher(engine *Engine, path string) (*RulesWatcher, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &RulesWatcher{
		engine:         engine,
		path:           filepath.Clean(path),
		watcher:        fsw,
		logger:         log.Default().WithPrefix("rules-watcher"),
		debounceWindow: 200 * time.Millisecond,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}, nil
}

// Start begins watching in a goroutine.
func (w *RulesWatcher) Start(ctx context.Context) error {
	if w == nil || w.watcher == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	w.startOnce.Do(func() {
		go w.loop(ctx)
	})
	return nil
}

// Stop stops the watcher.
func (w *RulesWatcher) Stop() error {
	if w == nil {
		return nil
	}
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
		<-w.doneCh
	})
	return nil
}

func (w *RulesWatcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		var timerC <-chan time.Time
		w.mu.Lock()
		if w.timer != nil {
			timerC = w.timer.C
		}
		w.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			w.record()
		case <-timerC:
			w.reload()
		}
	}
}

func (w *RulesWatcher) record() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.dirty = true
	if w.timer == nil {
		w.timer = time.NewTimer(w.debounceWindow)
		return
	}
	if !w.timer.Stop() {
		select {
		case <-w.timer.C:
		default:
		}
	}
	w.timer.Reset(w.debounceWindow)
}

func (w *RulesWatcher) reload() {
	w.mu.Lock()
	dirty := w.dirty
	w.dirty = false
	w.timer = nil
	w.mu.Unlock()

	if !dirty {
		return
	}

	rules, err := LoadDomainRules(w.path)
	if err != nil {
		// Keep the last good rules on a malformed document.
		w.logger.Warn("domain rules reload failed", "path", w.path, "error", err)
		return
	}
	w.engine.SetDomainRules(rules)
	w.logger.Info("domain rules reloaded", "path", w.path, "rules", len(rules))
}
