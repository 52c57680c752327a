// Package file stores the watermark as a small JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/models"
)

// CursorStorage keeps {"last_created_at": ...} in a single file
type CursorStorage struct {
	path   string
	mu     sync.Mutex
	logger arbor.ILogger
}

// NewCursorStorage creates a file-backed cursor store. The parent directory
// is created if missing.
func NewCursorStorage(path string, logger arbor.ILogger) (*CursorStorage, error) {
	if path == "" {
		return nil, &models.ConfigurationError{Field: "storage.file.path", Reason: "is required"}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cursor directory: %w", err)
	}
	return &CursorStorage{path: path, logger: logger}, nil
}

// Load returns the stored watermark, or the epoch watermark when the file is absent
func (s *CursorStorage) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.EpochWatermark, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read cursor file: %w", err)
	}

	var state models.CursorState
	if err := json.Unmarshal(data, &state); err != nil {
		return "", fmt.Errorf("failed to parse cursor file %s: %w", s.path, err)
	}
	if state.LastCreatedAt == "" {
		return models.EpochWatermark, nil
	}
	return state.LastCreatedAt, nil
}

// Save writes the watermark to a temp file and renames it over the old one
func (s *CursorStorage) Save(ctx context.Context, watermark string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(models.CursorState{LastCreatedAt: watermark}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cursor: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cursor file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cursor: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync cursor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cursor file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cursor file: %w", err)
	}

	s.logger.Debug().Str("path", s.path).Str("last_created_at", watermark).Msg("Cursor saved")
	return nil
}

// Close is a no-op
func (s *CursorStorage) Close() error {
	return nil
}
