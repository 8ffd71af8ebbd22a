package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"portfolio-client/internal/policy/domain"
)

// FileRepository loads Rego modules from a file or from every *.rego file in a directory.
type FileRepository struct {
	fs   afero.Fs
	path string
}

// NewFileRepository returns a repository reading path on fs. An empty path yields no policies.
func NewFileRepository(fs afero.Fs, path string) *FileRepository {
	return &FileRepository{fs: fs, path: strings.TrimSpace(path)}
}

// ListEnabled reads the configured policy files. Files are returned in name order.
func (r *FileRepository) ListEnabled(ctx context.Context) ([]*domain.Policy, error) {
	if r.path == "" {
		return nil, nil
	}
	info, err := r.fs.Stat(r.path)
	if err != nil {
		return nil, fmt.Errorf("route policy %s: %w", r.path, err)
	}
	files := []string{r.path}
	if info.IsDir() {
		files, err = afero.Glob(r.fs, filepath.Join(r.path, "*.rego"))
		if err != nil {
			return nil, fmt.Errorf("route policy %s: %w", r.path, err)
		}
		sort.Strings(files)
	}
	out := make([]*domain.Policy, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := afero.ReadFile(r.fs, f)
		if err != nil {
			return nil, fmt.Errorf("route policy %s: %w", f, err)
		}
		if strings.TrimSpace(string(raw)) == "" {
			continue
		}
		out = append(out, &domain.Policy{
			ID:      filepath.Base(f),
			Rules:   string(raw),
			Enabled: true,
			Source:  f,
		})
	}
	return out, nil
}

// StaticRepository serves a fixed set of policies.
type StaticRepository []*domain.Policy

// ListEnabled returns the enabled entries.
func (s StaticRepository) ListEnabled(ctx context.Context) ([]*domain.Policy, error) {
	var out []*domain.Policy
	for _, p := range s {
		if p != nil && p.Enabled {
			out = append(out, p)
		}
	}
	return out, nil
}
