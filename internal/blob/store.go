// Package blob stores entry-owned payload files (captured images, link
// thumbnails) under a single directory. Rows reference blobs by absolute
// path; whoever deletes a row deletes its blobs through this store.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blob directory: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Write persists data under a unique name derived from suggestedName and
// returns the absolute path. The write completes before the caller persists
// any row referencing it, so stored paths are never dangling.
func (s *Store) Write(data []byte, suggestedName string) (string, error) {
	name := uuid.NewString()
	if ext := filepath.Ext(suggestedName); ext != "" {
		name += ext
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	return path, nil
}

// Delete removes a blob file. A missing file is not an error; a path outside
// the blob directory is refused.
func (s *Store) Delete(path string) error {
	if path == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve blob path: %w", err)
	}
	if !strings.HasPrefix(abs, s.dir+string(filepath.Separator)) {
		return fmt.Errorf("refusing to delete file outside blob directory: %s", path)
	}

	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	return nil
}
