package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collect(t *testing.T, s *Scanner, since time.Time) []File {
	t.Helper()
	var files []File
	err := s.Walk(context.Background(), since, func(f File) error {
		files = append(files, f)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestNew(t *testing.T) {
	t.Run("cleans root and sets default limit", func(t *testing.T) {
		s := New("/tmp/notes/")

		assert.Equal(t, "/tmp/notes", s.Root())
		assert.Equal(t, DefaultMaxFileSize, s.maxSize)
	})

	t.Run("max file size option", func(t *testing.T) {
		assert.Equal(t, int64(10), New("/tmp", WithMaxFileSize(10)).maxSize)
		assert.Equal(t, DefaultMaxFileSize, New("/tmp", WithMaxFileSize(0)).maxSize)
	})
}

func TestScanner_Validate(t *testing.T) {
	t.Run("valid directory succeeds", func(t *testing.T) {
		assert.NoError(t, New(t.TempDir()).Validate(context.Background()))
	})

	t.Run("non-existent path returns error", func(t *testing.T) {
		err := New("/non/existent/path/12345").Validate(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("file instead of directory returns error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.txt")
		writeFile(t, path, "content")

		err := New(path).Validate(context.Background())

		assert.ErrorIs(t, err, ErrNotDirectory)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := New(t.TempDir()).Validate(ctx)

		assert.Equal(t, context.Canceled, err)
	})
}

func TestScanner_Walk(t *testing.T) {
	t.Run("reads files with folders relative to root", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.md"), "# A")
		writeFile(t, filepath.Join(root, "work", "plans", "B.TXT"), "plan")

		files := collect(t, New(root), time.Time{})

		require.Len(t, files, 2)
		assert.Equal(t, "a.md", files[0].RelPath)
		assert.Equal(t, "", files[0].Folder)
		assert.Equal(t, "md", files[0].Extension)
		assert.Equal(t, []byte("# A"), files[0].Content)

		assert.Equal(t, "work/plans/B.TXT", files[1].RelPath)
		assert.Equal(t, "work/plans", files[1].Folder)
		assert.Equal(t, "B.TXT", files[1].Name)
		assert.Equal(t, "txt", files[1].Extension)
		assert.Equal(t, int64(4), files[1].Size)
	})

	t.Run("skips hidden files and directories", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "visible.txt"), "visible")
		writeFile(t, filepath.Join(root, ".hidden.txt"), "hidden")
		writeFile(t, filepath.Join(root, ".git", "config"), "hidden")

		files := collect(t, New(root), time.Time{})

		require.Len(t, files, 1)
		assert.Equal(t, "visible.txt", files[0].Name)
	})

	t.Run("empty directory", func(t *testing.T) {
		assert.Empty(t, collect(t, New(t.TempDir()), time.Time{}))
	})

	t.Run("skips files over the size limit", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "small.txt"), "tiny")
		writeFile(t, filepath.Join(root, "large.txt"), "much larger content")

		files := collect(t, New(root, WithMaxFileSize(8)), time.Time{})

		require.Len(t, files, 1)
		assert.Equal(t, "small.txt", files[0].Name)
	})

	t.Run("since filters by modification time", func(t *testing.T) {
		root := t.TempDir()
		old := filepath.Join(root, "old.txt")
		writeFile(t, old, "old")
		writeFile(t, filepath.Join(root, "new.txt"), "new")
		past := time.Now().Add(-2 * time.Hour)
		require.NoError(t, os.Chtimes(old, past, past))

		files := collect(t, New(root), time.Now().Add(-time.Hour))

		require.Len(t, files, 1)
		assert.Equal(t, "new.txt", files[0].Name)
	})

	t.Run("callback error stops the walk", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), "a")
		writeFile(t, filepath.Join(root, "b.txt"), "b")
		stop := errors.New("stop")

		calls := 0
		err := New(root).Walk(context.Background(), time.Time{}, func(File) error {
			calls++
			return stop
		})

		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})

	t.Run("non-existent directory", func(t *testing.T) {
		err := New("/non/existent/path").Walk(context.Background(), time.Time{}, func(File) error { return nil })

		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("cancelled context", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), "a")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := New(root).Walk(ctx, time.Time{}, func(File) error { return nil })

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"/root/.config/file.txt", true},
		{"dir/.git/config", true},
		{".config/.cache/data", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/./file", false},
		{"path/../file", false},
		{"", false},
		{"/", false},
		{"file.hidden", false},
		{"directory.name/file", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestScanner_Close(t *testing.T) {
	t.Run("close is idempotent", func(t *testing.T) {
		s := New(t.TempDir())

		assert.NoError(t, s.Close())
		assert.NoError(t, s.Close())
	})

	t.Run("walk still works after close", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.txt"), "a")
		s := New(root)
		require.NoError(t, s.Close())

		assert.Len(t, collect(t, s, time.Time{}), 1)
	})
}
