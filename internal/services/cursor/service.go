// Package cursor guards the stored watermark so it only ever moves forward.
package cursor

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/interfaces"
	"github.com/ternarybob/leadrelay/internal/models"
)

// Service wraps a CursorStore with monotonic advance semantics
type Service struct {
	store  interfaces.CursorStore
	logger arbor.ILogger
}

// NewService creates a cursor service
func NewService(store interfaces.CursorStore, logger arbor.ILogger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Load returns the current watermark
func (s *Service) Load(ctx context.Context) (string, error) {
	return s.store.Load(ctx)
}

// Advance stores candidate if it sorts strictly after the current watermark.
// It reports whether the stored value changed.
func (s *Service) Advance(ctx context.Context, candidate string) (bool, error) {
	if candidate == "" {
		return false, nil
	}

	current, err := s.store.Load(ctx)
	if err != nil {
		return false, err
	}

	if candidate <= current {
		s.logger.Warn().
			Str("current", current).
			Str("candidate", candidate).
			Msg("Ignoring cursor candidate that does not move forward")
		return false, nil
	}

	if err := s.store.Save(ctx, candidate); err != nil {
		return false, err
	}

	s.logger.Info().
		Str("previous", current).
		Str("current", candidate).
		Msg("Cursor advanced")
	return true, nil
}

// Reset rewinds the watermark to the epoch so the next incremental run
// re-delivers everything the query returns
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Save(ctx, models.EpochWatermark); err != nil {
		return fmt.Errorf("failed to reset cursor: %w", err)
	}
	s.logger.Warn().Str("current", models.EpochWatermark).Msg("Cursor reset")
	return nil
}

// Close releases the underlying store
func (s *Service) Close() error {
	return s.store.Close()
}
