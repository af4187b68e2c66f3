// Package file implements storage as a directory of JSON files, one per
// key. It is the zero-infrastructure backend: inspectable with an editor,
// diffable, and watchable so out-of-band edits reach a running engine.
package file

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/roteiro/pkg/domain"
)

// Storage implements ports.Storage over a flat directory. Key characters
// that are unsafe in filenames ("/" among them) are percent-encoded, so
// the mapping key<->file is reversible.
type Storage struct {
	BasePath string
}

// New creates a Storage rooted at basePath. An empty basePath defaults to
// ".roteiro/data".
func New(basePath string) *Storage {
	if basePath == "" {
		basePath = filepath.Join(".roteiro", "data")
	}
	return &Storage{BasePath: basePath}
}

func (s *Storage) pathFor(key string) string {
	return filepath.Join(s.BasePath, url.PathEscape(key)+".json")
}

// Save writes value atomically: temp file in the same directory, fsync,
// then rename over the destination.
func (s *Storage) Save(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("file: key cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("file: ensure data directory: %w", err)
	}

	destPath := s.pathFor(key)

	// Same directory as the destination so the rename stays on one
	// filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("file: create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(value); err != nil {
		return fmt.Errorf("file: write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("file: fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("file: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("file: rename into place: %w", err)
	}
	return nil
}

// Load reads the value for key, or domain.ErrKeyNotFound.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("file: key cannot be empty")
	}
	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("file: read %q: %w", key, err)
	}
	return data, nil
}

// Delete removes the key's file. Absent keys are ignored.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("file: key cannot be empty")
	}
	err := os.Remove(s.pathFor(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("file: delete %q: %w", key, err)
	}
	return nil
}

// Keys lists stored keys with the given prefix.
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("file: list keys: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
