package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/recall/internal/logger"
)

// DefaultMaxFileSize is the largest file read by default (10 MiB).
const DefaultMaxFileSize int64 = 10 << 20

var (
	// ErrNotDirectory is returned when the root is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrClosed is returned when watching a closed scanner.
	ErrClosed = errors.New("scanner is closed")
)

// File is a file found under the root.
type File struct {
	// Path is the file's path on disk.
	Path string
	// RelPath is the slash-separated path relative to the root.
	RelPath string
	Name    string
	// Folder is the slash-separated directory relative to the root, empty
	// for files at the root.
	Folder string
	// Extension is lowercased without the leading dot.
	Extension string
	ModTime   time.Time
	Size      int64
	Content   []byte
}

// Scanner walks and watches one directory tree.
type Scanner struct {
	root    string
	maxSize int64

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMaxFileSize skips files larger than n bytes.
func WithMaxFileSize(n int64) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// New creates a scanner rooted at root.
func New(root string, opts ...Option) *Scanner {
	s := &Scanner{
		root:    filepath.Clean(root),
		maxSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the scanned directory.
func (s *Scanner) Root() string {
	return s.root
}

// Validate checks that the root exists and is a directory.
func (s *Scanner) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(s.root)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", s.root)
	}
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, s.root)
	}
	return nil
}

// Walk calls fn for every visible regular file under the root, in lexical
// order. When since is non-zero only files modified after it are visited.
// An error from fn stops the walk and is returned.
func (s *Scanner) Walk(ctx context.Context, since time.Time, fn func(File) error) error {
	if err := s.Validate(ctx); err != nil {
		return err
	}

	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if path != s.root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !since.IsZero() && !info.ModTime().After(since) {
			return nil
		}
		if info.Size() > s.maxSize {
			logger.Debug("Skipping %s: %d bytes exceeds limit", path, info.Size())
			return nil
		}

		file, err := s.readFile(path, info)
		if err != nil {
			return err
		}
		return fn(file)
	})
}

// describe builds a File without content.
func (s *Scanner) describe(path string) File {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)

	folder := ""
	if dir := filepath.Dir(filepath.FromSlash(rel)); dir != "." {
		folder = filepath.ToSlash(dir)
	}

	name := filepath.Base(path)
	return File{
		Path:      path,
		RelPath:   rel,
		Name:      name,
		Folder:    folder,
		Extension: strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")),
	}
}

func (s *Scanner) readFile(path string, info fs.FileInfo) (File, error) {
	file := s.describe(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading %s: %w", path, err)
	}
	file.Content = content
	file.ModTime = info.ModTime()
	file.Size = info.Size()
	return file, nil
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' }) {
		if part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// Close stops any active watch. It is safe to call more than once.
func (s *Scanner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
