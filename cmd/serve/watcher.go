package serve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/LegacyCodeHQ/sapling/componenttree"
)

const debounceInterval = 300 * time.Millisecond

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"build":        true,
	"dist":         true,
	"coverage":     true,
	".next":        true,
	".idea":        true,
	".vscode":      true,
}

var watchedExtensions = map[string]bool{
	".ts":   true,
	".tsx":  true,
	".js":   true,
	".jsx":  true,
	".json": true,
}

// watchAndUpdate routes saved-file notifications into the store. Events are
// debounced per file so one editor save triggers one subtree rebuild.
func watchAndUpdate(ctx context.Context, appRoot string, store *componenttree.Store, logger *log.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, appRoot); err != nil {
		return fmt.Errorf("failed to watch directories: %w", err)
	}

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Directory creates never carry a watched extension, so new
			// directories are registered before the relevance filter.
			if event.Has(fsnotify.Create) {
				addIfDirectory(watcher, event.Name)
			}

			if !isRelevantChange(event) {
				continue
			}

			changedFile := event.Name
			mu.Lock()
			if timer, ok := timers[changedFile]; ok {
				timer.Stop()
			}
			timers[changedFile] = time.AfterFunc(debounceInterval, func() {
				mu.Lock()
				delete(timers, changedFile)
				mu.Unlock()

				if _, err := store.UpdateTree(changedFile); err != nil {
					logger.Error("tree rebuild failed", "file", changedFile, "err", err)
					return
				}
				logger.Debug("tree updated", "file", changedFile)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "err", err)
		}
	}
}

func isRelevantChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return watchedExtensions[filepath.Ext(event.Name)]
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

func addIfDirectory(watcher *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		_ = addWatchDirs(watcher, path)
	}
}
