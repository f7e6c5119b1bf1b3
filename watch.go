package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// watchSettle coalesces the several events one editor save produces.
const watchSettle = 100 * time.Millisecond

// watchLayout calls apply with the contents of path each time the file is
// written, until ctx is done. The parent directory is watched because many
// editors save by renaming a temporary file over the original.
func watchLayout(ctx context.Context, path string, apply func(source string), log logrus.FieldLogger) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	reload := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).WithField("file", path).Warn("watch: read failed")
			return
		}
		log.WithField("file", path).Info("watch: re-importing layout")
		apply(string(data))
	}
	debounced := debounce.New(watchSettle)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				debounced(reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("watch: watcher error")
			}
		}
	}()
	return nil
}
