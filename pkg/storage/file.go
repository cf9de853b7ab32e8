package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"energystats/pkg/errors"
)

// FileStore is a Store backed by a directory tree on the local file system
type FileStore struct {
	basePath string
}

// NewFileStore creates a file store rooted at baseDir. The directory must
// already exist; relative directories are resolved against the working directory.
func NewFileStore(baseDir string) (*FileStore, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrorTypeInvalidArgument, "base path %s is not a directory", abs)
	}

	return &FileStore{basePath: abs}, nil
}

// BasePath returns the absolute root of the store
func (s *FileStore) BasePath() string {
	return s.basePath
}

// resolve maps a relative store path onto the file system. Paths that are
// absolute or climb out of the base with ".." are rejected; "" is the root.
func (s *FileStore) resolve(p string) (string, error) {
	if path.IsAbs(p) || filepath.IsAbs(p) {
		return "", errors.New(errors.ErrorTypeInvalidArgument, "path %q must be a relative path", p)
	}
	if p == "" {
		return s.basePath, nil
	}
	if !filepath.IsLocal(filepath.FromSlash(p)) {
		return "", errors.New(errors.ErrorTypeInvalidArgument, "path %q is outside the store", p)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(p)), nil
}

// List returns the regular files directly inside dir, sorted, as paths
// relative to the store root. A missing directory lists as empty.
func (s *FileStore) List(dir string) ([]string, error) {
	target, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		rel, err := filepath.Rel(s.basePath, filepath.Join(target, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to relativise %s: %w", entry.Name(), err)
		}
		files = append(files, filepath.ToSlash(rel))
	}
	sort.Strings(files)

	return files, nil
}

// ReadContents returns the contents of the file at p
func (s *FileStore) ReadContents(p string) (string, error) {
	target, err := s.resolve(p)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(errors.ErrorTypeNotFound, fs.ErrNotExist, fmt.Sprintf("read %s", p))
		}
		return "", fmt.Errorf("failed to read %s: %w", p, err)
	}

	return string(data), nil
}

// Write saves data to p atomically, creating parent directories as needed
func (s *FileStore) Write(p string, data []byte) error {
	target, err := s.resolve(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create partition directory: %w", err)
	}

	tempFile := target + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = out.Write(data)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// Remove deletes the file at p
func (s *FileStore) Remove(p string) error {
	if p == "" {
		return errors.New(errors.ErrorTypeInvalidArgument, "cannot remove the store root")
	}
	target, err := s.resolve(p)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrorTypeNotFound, fs.ErrNotExist, fmt.Sprintf("remove %s", p))
		}
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}
	return nil
}
