package registry

import (
	"errors"
	"io/fs"
	"sync"
	"time"

	"github.com/skaphos/repomirror/internal/model"
)

// Store is the repository table handed to the mirror engine.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(name string) (model.Repository, bool)
	Put(repo model.Repository) error
	Delete(name string) bool
	List() []model.Repository
	// Save persists the whole table.
	Save() error
}

// FileStore is a Store backed by a registry file.
type FileStore struct {
	mu   sync.Mutex
	path string
	reg  *Registry
}

// Open loads the registry at path. A missing file yields an empty store.
func Open(path string) (*FileStore, error) {
	reg, err := Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		reg = &Registry{}
	}
	return &FileStore{path: path, reg: reg}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(name string) (model.Repository, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if repo := s.reg.Find(name); repo != nil {
		return cloneRepository(*repo), true
	}
	return model.Repository{}, false
}

func (s *FileStore) Put(repo model.Repository) error {
	if NormalizeName(repo.Name) == "" {
		return ErrInvalidName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	repo.UpdatedAt = time.Now()
	s.reg.Upsert(cloneRepository(repo))
	return nil
}

func (s *FileStore) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Remove(name)
}

func (s *FileStore) List() []model.Repository {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Repository, 0, len(s.reg.Repositories))
	for _, repo := range s.reg.Repositories {
		out = append(out, cloneRepository(repo))
	}
	return out
}

func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.UpdatedAt = time.Now()
	s.reg.Sort()
	return Save(s.reg, s.path)
}

// MemoryStore is an in-process Store. Save only counts calls.
type MemoryStore struct {
	mu    sync.Mutex
	reg   Registry
	saves int
}

// NewMemoryStore returns a store seeded with repos.
func NewMemoryStore(repos ...model.Repository) *MemoryStore {
	s := &MemoryStore{}
	for _, repo := range repos {
		s.reg.Upsert(cloneRepository(repo))
	}
	return s
}

func (s *MemoryStore) Get(name string) (model.Repository, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if repo := s.reg.Find(name); repo != nil {
		return cloneRepository(*repo), true
	}
	return model.Repository{}, false
}

func (s *MemoryStore) Put(repo model.Repository) error {
	if NormalizeName(repo.Name) == "" {
		return ErrInvalidName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.Upsert(cloneRepository(repo))
	return nil
}

func (s *MemoryStore) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Remove(name)
}

func (s *MemoryStore) List() []model.Repository {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Repository, 0, len(s.reg.Repositories))
	for _, repo := range s.reg.Repositories {
		out = append(out, cloneRepository(repo))
	}
	return out
}

func (s *MemoryStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func cloneRepository(repo model.Repository) model.Repository {
	if repo.Exclude != nil {
		repo.Exclude = append([]string(nil), repo.Exclude...)
	}
	return repo
}
