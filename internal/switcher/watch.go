package switcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/janekbaraniewski/codexswitch/internal/credential"
)

// Watch calls onChange whenever auth.json is written, replaced or removed,
// by this process or by the Codex CLI. onChange receives nil when the file
// is gone or unreadable. Watch blocks until ctx is done.
func (s *Switcher) Watch(ctx context.Context, onChange func(*credential.Document)) error {
	dir, err := s.home.CodexHome()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating codex home %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: atomic replacement swaps the inode under a file watch.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != authFileName {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}

			doc, err := s.ReadActive()
			if err != nil {
				s.log.Warn("reading auth.json after change", zap.Error(err))
				doc = nil
			}
			onChange(doc)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watcher error", zap.Error(err))
		}
	}
}
