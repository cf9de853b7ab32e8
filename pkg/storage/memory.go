package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"energystats/pkg/errors"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemoryStore creates a memory store holding a copy of files (path -> contents).
func NewMemoryStore(files map[string]string) *MemoryStore {
	m := &MemoryStore{files: make(map[string]string, len(files))}
	for p, contents := range files {
		m.files[p] = contents
	}
	return m
}

// List returns every entry that dir is a path prefix of, in any order.
// An empty dir matches everything.
func (m *MemoryStore) List(dir string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir = strings.Trim(dir, "/")
	matches := []string{}
	for p := range m.files {
		if isUnder(p, dir) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// isUnder compares whole path segments, so "2023/12/1" is not a prefix of "2023/12/10/..."
func isUnder(p, dir string) bool {
	if dir == "" || dir == "." {
		return true
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

func (m *MemoryStore) ReadContents(p string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	contents, ok := m.files[p]
	if !ok {
		return "", errors.New(errors.ErrorTypeNotFound, "read %s: no such entry", p)
	}
	return contents, nil
}

func (m *MemoryStore) Write(p string, data []byte) error {
	if err := checkPath(p); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = string(data)
	return nil
}

func (m *MemoryStore) Remove(p string) error {
	if err := checkPath(p); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[p]; !ok {
		return errors.New(errors.ErrorTypeNotFound, "remove %s: no such entry", p)
	}
	delete(m.files, p)
	return nil
}

// checkPath applies the same rules as FileStore.resolve
func checkPath(p string) error {
	if strings.HasPrefix(p, "/") {
		return errors.New(errors.ErrorTypeInvalidArgument, "path %q must be a relative path", p)
	}
	if !filepath.IsLocal(p) {
		return errors.New(errors.ErrorTypeInvalidArgument, "path %q is outside the store", p)
	}
	return nil
}

// Len returns the number of stored entries
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// String is used in test failure output
func (m *MemoryStore) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("MemoryStore(%d entries)", len(m.files))
}
