// Package harvester pages through the lead listing and collects new records.
package harvester

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/interfaces"
	"github.com/ternarybob/leadrelay/internal/models"
	"github.com/ternarybob/leadrelay/internal/services/normalizer"
)

// Service drives a PortalClient page by page and applies the watermark filter
type Service struct {
	portal interfaces.PortalClient
	mode   models.HarvestMode
	logger arbor.ILogger
}

// NewService creates a harvester. An empty mode means incremental.
func NewService(portal interfaces.PortalClient, mode models.HarvestMode, logger arbor.ILogger) *Service {
	if mode == "" {
		mode = models.HarvestModeIncremental
	}
	return &Service{
		portal: portal,
		mode:   mode,
		logger: logger,
	}
}

// Mode returns the filtering mode
func (s *Service) Mode() models.HarvestMode {
	return s.mode
}

// Harvest walks every page and returns records created strictly after the
// watermark (or every record in full mode). Any page error discards what was
// collected so far.
func (s *Service) Harvest(ctx context.Context, tokens *models.AuthTokens, filters models.Filters, watermark string) (*models.HarvestResult, error) {
	result := &models.HarvestResult{}
	var kept []models.CanonicalRecord

	for page, err := range s.portal.Pages(ctx, tokens, filters) {
		if err != nil {
			return nil, fmt.Errorf("harvest aborted after %d pages: %w", result.PagesFetched, err)
		}

		result.PagesFetched++
		pageKept := 0

		for _, row := range page.Rows {
			result.RowsScanned++
			record := normalizer.Normalize(row.Record)

			if !s.keep(record, watermark) {
				continue
			}

			kept = append(kept, record)
			pageKept++
			if record.CreatedAt > result.MaxCreatedAt {
				result.MaxCreatedAt = record.CreatedAt
			}
		}

		s.logger.Debug().
			Int("page", page.Number).
			Int("rows", len(page.Rows)).
			Int("kept", pageKept).
			Msg("Page harvested")
	}

	result.NewRecords = kept

	s.logger.Info().
		Str("mode", string(s.mode)).
		Str("watermark", watermark).
		Int("pages", result.PagesFetched).
		Int("rows_scanned", result.RowsScanned).
		Int("new_records", len(kept)).
		Str("max_created_at", result.MaxCreatedAt).
		Msg("Harvest complete")

	return result, nil
}

// keep is the incremental predicate. Portal timestamps are fixed-width
// "YYYY-MM-DD HH:MM:SS", so byte order is chronological order.
func (s *Service) keep(record models.CanonicalRecord, watermark string) bool {
	if s.mode == models.HarvestModeFull {
		return true
	}
	return record.CreatedAt > watermark
}
