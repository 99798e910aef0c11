// SPDX-License-Identifier: MIT
package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const ensuredDirCacheSize = 4096

// LocalSink writes into a directory tree on the local filesystem.
type LocalSink struct {
	root string
	// ensured remembers directories already known to exist.
	ensured *lru.Cache[string, struct{}]
}

// NewLocalSink creates a sink rooted at root. The root itself is created on
// first use.
func NewLocalSink(root string) (*LocalSink, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("mirror root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, struct{}](ensuredDirCacheSize)
	if err != nil {
		return nil, err
	}
	return &LocalSink{root: filepath.Clean(abs), ensured: cache}, nil
}

// Root returns the absolute mirror root.
func (s *LocalSink) Root() string { return s.root }

// Location returns the absolute filesystem path for rel.
func (s *LocalSink) Location(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// EnsureDir checks for the directory and creates it with any missing
// parents. Losing a creation race to another caller is not an error.
func (s *LocalSink) EnsureDir(_ context.Context, rel string) error {
	rel = path.Clean(strings.Trim(rel, "/"))
	if rel == "." {
		rel = ""
	}
	if _, ok := s.ensured.Get(rel); ok {
		return nil
	}
	dir := s.Location(rel)
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
	case err == nil:
		return fmt.Errorf("mirror path %s exists and is not a directory", dir)
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			if !errors.Is(err, fs.ErrExist) {
				return err
			}
			if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
				return err
			}
		}
	default:
		return err
	}
	s.ensured.Add(rel, struct{}{})
	return nil
}

// WriteFile writes data to rel, creating parent directories as needed.
func (s *LocalSink) WriteFile(ctx context.Context, rel string, data []byte) error {
	if err := s.EnsureDir(ctx, path.Dir(rel)); err != nil {
		return err
	}
	return os.WriteFile(s.Location(rel), data, 0o644)
}
