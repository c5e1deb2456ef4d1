package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"eventcheck/pkg/logging"
)

var (
	errProcessExited = errors.New("process exited")
	errReadyTimeout  = errors.New("timed out waiting for ready file")
)

// waitForReadyFile blocks until path exists and is not empty. It gives up
// when exited is closed, ctx ends or timeout passes.
func waitForReadyFile(ctx context.Context, path string, exited <-chan struct{}, timeout time.Duration) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	// The file may have been written before the watch was in place.
	if readyFileWritten(path) {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if (event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) && readyFileWritten(path) {
				logging.Debug("Controller", "Ready file %s written", path)
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			logging.Warn("Controller", "File watcher error: %v", err)
		case <-exited:
			return errProcessExited
		case <-timer.C:
			return errReadyTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func readyFileWritten(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
