package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce coalesces the burst of events an editor save produces.
const defaultDebounce = 500 * time.Millisecond

// watchFile calls rebuild after each change to path until ctx is done.
// The parent directory is watched rather than the file itself, so editors
// that save by renaming a temporary file are picked up too. Rebuild errors
// are reported and watching continues.
func watchFile(ctx context.Context, path string, debounce time.Duration, logger *log.Logger, rebuild func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("requirements changed", "file", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "err", err)

		case <-timer.C:
			printInfo("Change detected, rebuilding...")
			if err := rebuild(); err != nil {
				printError("%v", err)
				logger.Debug("rebuild failed", "err", err)
			}
		}
	}
}
