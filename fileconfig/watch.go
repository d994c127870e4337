package fileconfig

import (
	"context"
	"path/filepath"

	"github.com/Station-Manager/logsink"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Refresher is the part of logsink.Service the watcher drives.
type Refresher interface {
	RefreshLevel() error
	RefreshFile() error
}

var log = logsink.Module("logsink/fileconfig")

// Watch reloads f whenever its file is written, created or renamed into
// place and applies the changed half to target. It blocks until ctx is done.
// Refresh failures are logged, not retried.
func Watch(ctx context.Context, f *File, target Refresher) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create settings watcher")
	}
	defer w.Close()

	// Editors replace files, so watch the directory rather than the file.
	if err := w.Add(filepath.Dir(f.Path())); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(f.Path()))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.Path() {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			Apply(f, target)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("settings watcher error")
		}
	}
}

// Apply reloads f and calls the refresh for each half that changed. It
// returns the changes that were detected.
func Apply(f *File, target Refresher) Changes {
	changes, err := f.Reload()
	if err != nil {
		log.Warn().Err(err).Str("path", f.Path()).Msg("settings reload failed, keeping previous settings")
		return Changes{}
	}
	if changes.Level {
		if err := target.RefreshLevel(); err != nil {
			log.Error().Err(err).Msg("refresh log level")
		} else {
			log.Info().Str("level", f.LogLevel().String()).Msg("log level refreshed")
		}
	}
	if changes.File {
		if err := target.RefreshFile(); err != nil {
			log.Error().Err(err).Msg("refresh log file")
		} else {
			log.Info().Msg("log rotation refreshed")
		}
	}
	return changes
}
