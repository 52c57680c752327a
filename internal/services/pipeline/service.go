// Package pipeline runs one harvest end to end: login, page through the
// listing, deliver the batch and only then advance the cursor.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/common"
	"github.com/ternarybob/leadrelay/internal/interfaces"
	"github.com/ternarybob/leadrelay/internal/models"
	"github.com/ternarybob/leadrelay/internal/services/cursor"
	"github.com/ternarybob/leadrelay/internal/services/portal"
)

// Options are the per-run inputs taken from config
type Options struct {
	Credentials   models.Credentials
	Mode          models.HarvestMode
	SearchBy      string
	Project       string
	DateFilter    string // verbatim override; wins over DateRangeDays
	DateRangeDays int
	DateLayout    string
}

// Service orchestrates a single run
type Service struct {
	options    Options
	acquirer   interfaces.SessionAcquirer
	harvester  interfaces.Harvester
	dispatcher interfaces.Dispatcher
	cursor     *cursor.Service
	logger     arbor.ILogger
	now        func() time.Time
}

// NewService creates a pipeline
func NewService(
	options Options,
	acquirer interfaces.SessionAcquirer,
	harvester interfaces.Harvester,
	dispatcher interfaces.Dispatcher,
	cursorService *cursor.Service,
	logger arbor.ILogger,
) *Service {
	if options.Mode == "" {
		options.Mode = models.HarvestModeIncremental
	}
	return &Service{
		options:    options,
		acquirer:   acquirer,
		harvester:  harvester,
		dispatcher: dispatcher,
		cursor:     cursorService,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one harvest. Nothing is persisted unless the webhook accepted
// the batch; on any earlier failure the stored watermark is untouched.
func (s *Service) Run(ctx context.Context) (*models.RunResult, error) {
	runID := common.NewRunID()
	logger := s.logger.WithCorrelationId(runID)
	startTime := time.Now()

	result := &models.RunResult{
		RunID: runID,
		Mode:  s.options.Mode,
	}
	defer func() {
		result.Duration = time.Since(startTime)
	}()

	if err := s.checkCredentials(); err != nil {
		logger.Error().Err(err).Msg("Run refused")
		return result, err
	}

	filters := s.filters()
	logger.Info().
		Str("mode", string(s.options.Mode)).
		Str("date_filter", filters.DateFilter).
		Str("project", filters.Project).
		Msg("Run started")

	tokens, err := s.acquirer.Acquire(ctx, s.options.Credentials)
	if err != nil {
		logger.Error().Err(err).Msg("Session acquisition failed")
		return result, err
	}

	var watermark string
	if s.options.Mode == models.HarvestModeIncremental {
		watermark, err = s.cursor.Load(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load cursor")
			return result, err
		}
		result.PreviousCursor = watermark
		result.NewCursor = watermark
	}

	harvest, err := s.harvester.Harvest(ctx, tokens, filters, watermark)
	if err != nil {
		logger.Error().Err(err).Msg("Harvest failed")
		return result, err
	}
	result.Pages = harvest.PagesFetched
	result.RowsScanned = harvest.RowsScanned
	result.Records = len(harvest.NewRecords)

	if s.options.Mode == models.HarvestModeIncremental && len(harvest.NewRecords) == 0 {
		logger.Info().
			Str("cursor", watermark).
			Int("pages", harvest.PagesFetched).
			Msg("No new leads since last run")
		return result, nil
	}

	batch := models.Batch{
		Mode:           s.options.Mode,
		DateFilter:     filters.DateFilter,
		PreviousCursor: watermark,
		Records:        harvest.NewRecords,
		FetchedAt:      s.now(),
	}
	if err := s.dispatcher.Dispatch(ctx, batch); err != nil {
		logger.Error().Err(err).Int("records", len(batch.Records)).Msg("Delivery failed, cursor unchanged")
		return result, err
	}
	result.Delivered = true

	if s.options.Mode == models.HarvestModeIncremental {
		if _, err := s.cursor.Advance(ctx, harvest.MaxCreatedAt); err != nil {
			logger.Error().
				Err(err).
				Str("max_created_at", harvest.MaxCreatedAt).
				Msg("Batch delivered but cursor was not saved; next run will re-deliver")
			return result, fmt.Errorf("batch delivered but cursor not saved: %w", err)
		}
		result.NewCursor = harvest.MaxCreatedAt
	}

	logger.Info().
		Int("records", result.Records).
		Int("pages", result.Pages).
		Str("cursor", result.NewCursor).
		Dur("duration", time.Since(startTime)).
		Msg("Run completed")

	return result, nil
}

func (s *Service) checkCredentials() error {
	if s.options.Credentials.Email == "" {
		return &models.ConfigurationError{Field: "portal.email", Reason: "is required"}
	}
	if s.options.Credentials.Password == "" {
		return &models.ConfigurationError{Field: "portal.password", Reason: "is required"}
	}
	return nil
}

func (s *Service) filters() models.Filters {
	return models.Filters{
		SearchBy:   s.options.SearchBy,
		Project:    s.options.Project,
		DateFilter: portal.DateFilterFor(s.options.DateFilter, s.options.DateRangeDays, s.options.DateLayout, s.now()),
	}
}
