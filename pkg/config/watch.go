package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/quizrace/log"
	"github.com/mpapenbr/quizrace/pkg/utils"
)

// WatchFiles calls onChange whenever the content of one of files changes.
// Editors often write a file several times or only touch it, so a change is
// reported only if the content hash differs from the last seen one.
// It blocks until ctx is done.
func WatchFiles(ctx context.Context, onChange func(file string), files ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	l := log.Default().Named("watch")
	hashes := map[string]string{}
	dirs := map[string]struct{}{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		// hash errors are fine here, the file may be created later
		hashes[abs], _ = utils.HashFile(abs)
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	// watching the directory survives editors that replace the file on save
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			l.Debug("context done, stopping watcher")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			last, watched := hashes[name]
			if !watched {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Chmod) {
				continue
			}
			hash, err := utils.HashFile(name)
			if err != nil || hash == last {
				continue
			}
			hashes[name] = hash
			l.Info("file changed", log.String("file", name))
			onChange(name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.Error("watcher error", log.ErrorField(err))
		}
	}
}
