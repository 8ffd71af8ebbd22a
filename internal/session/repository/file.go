package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/spf13/afero"
)

// validKey restricts keys to names that are safe as file names.
var validKey = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// FileRepository stores each key as <dir>/<key>.json on an afero filesystem.
// Writes go to a temp file first and are renamed into place so a crash never leaves a half-written value.
type FileRepository struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

// NewFileRepository returns a repository rooted at dir on fs. The directory is created on first write.
func NewFileRepository(fs afero.Fs, dir string) *FileRepository {
	if dir == "" {
		dir = "."
	}
	return &FileRepository{fs: fs, dir: dir}
}

// NewOSFileRepository returns a FileRepository on the operating system filesystem.
func NewOSFileRepository(dir string) *FileRepository {
	return NewFileRepository(afero.NewOsFs(), dir)
}

func (r *FileRepository) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("session file: invalid key %q", key)
	}
	return filepath.Join(r.dir, key+".json"), nil
}

// Get returns the file contents for key, or nil if the file does not exist.
func (r *FileRepository) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := r.path(key)
	if err != nil {
		return nil, err
	}
	b, err := afero.ReadFile(r.fs, p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("session file: read %s: %w", p, err)
	}
	return b, nil
}

// Put writes value for key with owner-only permissions.
func (r *FileRepository) Put(ctx context.Context, key string, value []byte) error {
	p, err := r.path(key)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fs.MkdirAll(r.dir, 0o700); err != nil {
		return fmt.Errorf("session file: mkdir %s: %w", r.dir, err)
	}
	tmp := p + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, value, 0o600); err != nil {
		return fmt.Errorf("session file: write %s: %w", tmp, err)
	}
	if err := r.fs.Rename(tmp, p); err != nil {
		_ = r.fs.Remove(tmp)
		return fmt.Errorf("session file: rename %s: %w", p, err)
	}
	return nil
}

// Delete removes the file for key.
func (r *FileRepository) Delete(ctx context.Context, key string) error {
	p, err := r.path(key)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session file: remove %s: %w", p, err)
	}
	return nil
}
