package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"CryptoPulse/internal/domain/models"
	"CryptoPulse/internal/domain/repository"
)

const artifactFile = "model.json"

// FileArtifactStore keeps the single current model artifact as a JSON
// file. Replace writes to a temporary file in the same directory and
// renames it over the old one, so a concurrent reader never observes a
// partially written artifact. An in-memory copy under RWMutex serves
// reads without touching the disk on the hot path.
type FileArtifactStore struct {
	dir string

	mu      sync.RWMutex
	current *models.ModelArtifact
	loaded  bool
}

// NewFileArtifactStore creates the store, ensuring the directory exists.
func NewFileArtifactStore(dir string) (repository.ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact dir: %w", err)
	}
	return &FileArtifactStore{dir: dir}, nil
}

// Current returns the current artifact, loading it from disk on first
// access. ok is false when no artifact was ever produced.
func (s *FileArtifactStore) Current(ctx context.Context) (*models.ModelArtifact, bool, error) {
	s.mu.RLock()
	if s.loaded {
		a := s.current
		s.mu.RUnlock()
		return a, a != nil, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.current, s.current != nil, nil
	}

	b, err := os.ReadFile(filepath.Join(s.dir, artifactFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.loaded = true
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read artifact: %w", err)
	}

	var a models.ModelArtifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, false, fmt.Errorf("decode artifact: %w", err)
	}
	s.current = &a
	s.loaded = true
	return s.current, true, nil
}

// Replace atomically installs a new artifact as the current one.
func (s *FileArtifactStore) Replace(ctx context.Context, a *models.ModelArtifact) error {
	if a == nil {
		return fmt.Errorf("artifact is nil")
	}

	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, artifactFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, artifactFile)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("install artifact: %w", err)
	}

	s.mu.Lock()
	s.current = a
	s.loaded = true
	s.mu.Unlock()
	return nil
}
