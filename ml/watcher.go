package ml

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 250 * time.Millisecond

// Watcher reloads Artifacts when either file changes on disk.
type Watcher struct {
	artifacts *Artifacts
	logger    *zap.Logger
	onReload  func()
	watcher   *fsnotify.Watcher
	files     map[string]bool
}

// NewWatcher watches the directories holding the artifact files so that
// atomic replace-by-rename is picked up as well as in-place writes.
func NewWatcher(artifacts *Artifacts, logger *zap.Logger, onReload func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		artifacts: artifacts,
		logger:    logger,
		onReload:  onReload,
		watcher:   fw,
		files:     make(map[string]bool),
	}
	dirs := make(map[string]bool)
	for _, path := range artifacts.Paths() {
		abs, err := filepath.Abs(path)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	timer := time.NewTimer(reloadDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("artifact changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(reloadDebounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("artifact watcher error", zap.Error(err))
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

func (w *Watcher) reload() {
	if err := w.artifacts.Reload(); err != nil {
		w.logger.Error("artifact reload failed, keeping previous models", zap.Error(err))
		return
	}
	w.logger.Info("artifacts reloaded", zap.Strings("paths", w.artifacts.Paths()))
	if w.onReload != nil {
		w.onReload()
	}
}
