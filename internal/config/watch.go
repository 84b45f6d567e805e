// internal/config/watch.go
package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce absorbs the burst of events editors emit for one save.
const DefaultDebounce = 200 * time.Millisecond

// Watch reloads the config at path whenever it changes on disk and hands
// every config that passes Validate to onChange, normalized. Invalid
// revisions are logged and skipped. Watch blocks until ctx is cancelled.
//
// The parent directory is watched so that atomic rename-on-save is seen.
func Watch(ctx context.Context, path string, debounce time.Duration, log *zap.Logger, onChange func(*Config)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	log.Debug("watching config", zap.String("path", abs))

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", zap.Error(err))

		case <-timer.C:
			cfg, err := Load(abs)
			if err == nil {
				err = Validate(cfg)
			}
			if err != nil {
				log.Warn("config reload rejected", zap.String("path", abs), zap.Error(err))
				continue
			}
			Normalize(cfg)
			log.Info("config reloaded", zap.String("path", abs))
			onChange(cfg)
		}
	}
}
