// SPDX-License-Identifier: MIT
// Package registry persists the set of mirrored repositories as a single
// whole-file record.
package registry

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skaphos/repomirror/internal/model"
	"github.com/skaphos/repomirror/internal/sortutil"
	"go.yaml.in/yaml/v3"
)

var (
	// ErrNotFound is returned when no repository has the requested name.
	ErrNotFound = errors.New("repository not found")
	// ErrExists is returned when adding a name that is already registered.
	ErrExists = errors.New("repository already exists")
	// ErrInvalidName is returned for empty repository names.
	ErrInvalidName = errors.New("repository name is required")
)

// Registry is the on-disk record of all repositories.
type Registry struct {
	UpdatedAt    time.Time          `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Repositories []model.Repository `json:"repositories" yaml:"repositories"`
}

// NormalizeName returns the registry key for a user-supplied name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Load reads a registry file. Files ending in .yaml or .yml are decoded as
// YAML, anything else as JSON.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg Registry
	if isYAML(path) {
		err = yaml.Unmarshal(data, &reg)
	} else {
		err = json.Unmarshal(data, &reg)
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Save writes the registry to path, replacing the file atomically.
func Save(reg *Registry, path string) error {
	if reg == nil {
		return errors.New("registry is nil")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(reg)
	} else {
		data, err = json.MarshalIndent(reg, "", "  ")
	}
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Upsert adds repo or replaces the entry with the same name.
func (r *Registry) Upsert(repo model.Repository) {
	repo.Name = NormalizeName(repo.Name)
	for i := range r.Repositories {
		if r.Repositories[i].Name == repo.Name {
			if repo.AddedAt.IsZero() {
				repo.AddedAt = r.Repositories[i].AddedAt
			}
			r.Repositories[i] = repo
			return
		}
	}
	r.Repositories = append(r.Repositories, repo)
}

// Find returns the repository with the given name, or nil.
func (r *Registry) Find(name string) *model.Repository {
	name = NormalizeName(name)
	for i := range r.Repositories {
		if r.Repositories[i].Name == name {
			return &r.Repositories[i]
		}
	}
	return nil
}

// Remove deletes the repository with the given name and reports whether it
// existed.
func (r *Registry) Remove(name string) bool {
	name = NormalizeName(name)
	for i := range r.Repositories {
		if r.Repositories[i].Name == name {
			r.Repositories = append(r.Repositories[:i], r.Repositories[i+1:]...)
			return true
		}
	}
	return false
}

// Sort orders repositories by name.
func (r *Registry) Sort() {
	sortutil.SortRepositories(r.Repositories)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
