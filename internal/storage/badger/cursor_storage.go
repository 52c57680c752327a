package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CursorStorage persists a single named watermark in Badger
type CursorStorage struct {
	db     *BadgerDB
	key    string
	logger arbor.ILogger
}

// NewCursorStorage creates a cursor store keyed by name
func NewCursorStorage(db *BadgerDB, name string, logger arbor.ILogger) *CursorStorage {
	return &CursorStorage{
		db:     db,
		key:    "cursor:" + name,
		logger: logger,
	}
}

// Load returns the stored watermark, or the epoch watermark when none exists
func (s *CursorStorage) Load(ctx context.Context) (string, error) {
	var state models.CursorState
	err := s.db.Store().Get(s.key, &state)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return models.EpochWatermark, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load cursor %s: %w", s.key, err)
	}
	if state.LastCreatedAt == "" {
		return models.EpochWatermark, nil
	}
	return state.LastCreatedAt, nil
}

// Save stores the watermark
func (s *CursorStorage) Save(ctx context.Context, watermark string) error {
	state := models.CursorState{
		Name:          s.key,
		LastCreatedAt: watermark,
		UpdatedAt:     time.Now(),
	}
	if err := s.db.Store().Upsert(s.key, &state); err != nil {
		return fmt.Errorf("failed to save cursor %s: %w", s.key, err)
	}

	s.logger.Debug().Str("key", s.key).Str("last_created_at", watermark).Msg("Cursor saved")
	return nil
}

// Close closes the underlying database
func (s *CursorStorage) Close() error {
	return s.db.Close()
}
