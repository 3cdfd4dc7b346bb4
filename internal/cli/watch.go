package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDelay collapses the bursts of events an editor save produces into
// one rebuild.
var watchDelay = 200 * time.Millisecond

// watchTarget returns the directory to watch for arg and the filter for
// the file names that trigger a rebuild. Documents are matched by name,
// since editors often replace the file instead of writing it. Generated
// column files and tests are ignored in package directories.
func watchTarget(arg string, src *source) (string, func(string) bool, error) {
	if src.dir == "" {
		path, err := filepath.Abs(arg)
		if err != nil {
			return "", nil, err
		}
		return filepath.Dir(path), func(name string) bool {
			abs, err := filepath.Abs(name)
			return err == nil && abs == path
		}, nil
	}
	return src.dir, func(name string) bool {
		return strings.HasSuffix(name, ".go") &&
			!strings.HasSuffix(name, "_columns.go") &&
			!strings.HasSuffix(name, "_test.go")
	}, nil
}

// watch calls rebuild after matching files in dir change, until ctx is
// done. Rebuild errors are logged and watching goes on, so a half-edited
// file does not end the session.
func watch(ctx context.Context, dir string, match func(string) bool, log *slog.Logger, rebuild func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Debug("watching", "dir", dir)
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !match(ev.Name) {
				continue
			}
			log.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
			fire = time.After(watchDelay)
		case <-fire:
			fire = nil
			if err := rebuild(); err != nil {
				log.Error("regenerate", "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
}
