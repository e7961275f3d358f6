// Package fragio provides the I/O collaborators of the configuration store:
// enumeration and raw reading/writing of fragment files, and the YAML codec
// that converts between raw bytes and trees.
//
// Writes are atomic (temp file + rename) so an interrupted flush never leaves
// a half-written fragment on disk.
package fragio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// fragmentMode is the permission netplan requires on its configuration files.
const fragmentMode = 0o600

// Source enumerates and transfers raw fragment content. List must be
// re-runnable so the configuration can be fully reloaded.
type Source interface {
	// List returns the fragment identifiers (file paths) in ascending order.
	List() ([]string, error)

	// Read returns the raw bytes of one fragment.
	Read(id string) ([]byte, error)

	// Write persists raw bytes for one fragment.
	Write(id string, data []byte) error
}

// DirSource is a Source over the .yaml/.yml files of a single directory.
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource for the given directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// List returns the sorted paths of all YAML files directly in the directory.
// A missing or unreadable directory is an error, not an empty set.
func (s *DirSource) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fragment directory %s: %w", s.dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(s.dir, name))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Read returns the raw bytes of one fragment file.
func (s *DirSource) Read(id string) ([]byte, error) {
	data, err := os.ReadFile(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read fragment: %w", err)
	}
	return data, nil
}

// Write persists a fragment atomically via temp file + rename in the target
// directory.
func (s *DirSource) Write(id string, data []byte) error {
	dir := filepath.Dir(id)

	tmpFile, err := os.CreateTemp(dir, ".netfold-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, fragmentMode); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, id); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	return nil
}

// FakeSource is an in-memory Source for testing.
type FakeSource struct {
	files      map[string][]byte
	failReads  map[string]error
	failWrites map[string]error

	// Written records the identifiers passed to Write, in call order.
	Written []string
}

// NewFakeSource creates a FakeSource holding the given files.
func NewFakeSource(files map[string][]byte) *FakeSource {
	copied := make(map[string][]byte, len(files))
	for id, data := range files {
		copied[id] = append([]byte(nil), data...)
	}
	return &FakeSource{
		files:      copied,
		failReads:  make(map[string]error),
		failWrites: make(map[string]error),
	}
}

// FailRead makes Read return err for the given identifier.
func (s *FakeSource) FailRead(id string, err error) {
	s.failReads[id] = err
}

// FailWrite makes Write return err for the given identifier.
func (s *FakeSource) FailWrite(id string, err error) {
	s.failWrites[id] = err
}

// File returns the current content of one fragment.
func (s *FakeSource) File(id string) ([]byte, bool) {
	data, ok := s.files[id]
	return data, ok
}

// List returns the sorted identifiers of all held files.
func (s *FakeSource) List() ([]string, error) {
	ids := make([]string, 0, len(s.files))
	for id := range s.files {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Read returns the stored bytes for an identifier.
func (s *FakeSource) Read(id string) ([]byte, error) {
	if err, ok := s.failReads[id]; ok {
		return nil, err
	}
	data, ok := s.files[id]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

// Write stores bytes for an identifier and records the call.
func (s *FakeSource) Write(id string, data []byte) error {
	if err, ok := s.failWrites[id]; ok {
		return err
	}
	s.files[id] = append([]byte(nil), data...)
	s.Written = append(s.Written, id)
	return nil
}
