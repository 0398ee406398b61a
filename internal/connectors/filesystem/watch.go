package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/recall/internal/logger"
)

// ChangeType is the kind of change seen by Watch.
type ChangeType int

const (
	ChangeCreated ChangeType = iota
	ChangeUpdated
	ChangeDeleted
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is a file event. File carries content for created and updated files.
type Change struct {
	Type ChangeType
	File File
}

// Watch reports changes to visible files under the root until ctx is
// cancelled or the scanner is closed. Directories created while watching
// are watched too.
func (s *Scanner) Watch(ctx context.Context) (<-chan Change, error) {
	if err := s.Validate(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.watcher != nil {
		return nil, fmt.Errorf("already watching %s", s.root)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", s.root, err)
	}
	s.watcher = w

	changes := make(chan Change, 64)
	go s.watchLoop(ctx, w, changes)
	return changes, nil
}

func (s *Scanner) watchLoop(ctx context.Context, w *fsnotify.Watcher, out chan<- Change) {
	defer close(out)
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				s.watchNewDir(w, event.Name)
			}
			change := s.handleFsEvent(event)
			if change == nil {
				continue
			}
			select {
			case out <- *change:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("Watching %s: %v", s.root, err)
		}
	}
}

func (s *Scanner) watchNewDir(w *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || isHidden(s.describe(path).RelPath) {
		return
	}
	if err := w.Add(path); err != nil {
		logger.Warn("Watching %s: %v", path, err)
	}
}

// handleFsEvent converts an fsnotify event to a Change, or nil when the
// event is not about a visible regular file.
func (s *Scanner) handleFsEvent(event fsnotify.Event) *Change {
	file := s.describe(event.Name)
	if isHidden(file.RelPath) {
		return nil
	}

	var changeType ChangeType
	switch {
	case event.Has(fsnotify.Create):
		changeType = ChangeCreated
	case event.Has(fsnotify.Write):
		changeType = ChangeUpdated
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{Type: ChangeDeleted, File: file}
	default:
		return nil
	}

	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	if info.Size() > s.maxSize {
		logger.Debug("Skipping %s: %d bytes exceeds limit", event.Name, info.Size())
		return nil
	}

	read, err := s.readFile(event.Name, info)
	if err != nil {
		logger.Warn("%v", err)
		return nil
	}
	return &Change{Type: changeType, File: read}
}
