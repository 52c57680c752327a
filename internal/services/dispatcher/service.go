// Package dispatcher delivers harvested lead batches to the downstream webhook.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/models"
)

// fetchedAtLayout matches JavaScript's Date.toISOString
const fetchedAtLayout = "2006-01-02T15:04:05.000Z"

// maxErrorBody caps how much of a rejected response is kept on the error
const maxErrorBody = 2048

// fullPayload is sent for full-mode runs
type fullPayload struct {
	Source       string                   `json:"source"`
	FetchedAt    string                   `json:"fetched_at"`
	DateFilter   string                   `json:"date_filter,omitempty"`
	TotalRecords int                      `json:"total_records"`
	Records      []models.CanonicalRecord `json:"records"`
}

// incrementalPayload is sent for incremental runs
type incrementalPayload struct {
	Meta    incrementalMeta          `json:"meta"`
	Records []models.CanonicalRecord `json:"records"`
}

type incrementalMeta struct {
	Source         string `json:"source"`
	DateFilter     string `json:"date_filter"`
	PreviousCursor string `json:"previous_cursor"`
	NewRecords     int    `json:"new_records"`
}

// Service posts each batch to the webhook in a single attempt
type Service struct {
	url    string
	client *resty.Client
	logger arbor.ILogger
}

// NewService creates a webhook dispatcher
func NewService(url string, timeout time.Duration, logger arbor.ILogger) *Service {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")

	return &Service{
		url:    url,
		client: client,
		logger: logger,
	}
}

// Dispatch sends the batch in a single POST. Any transport failure or non-2xx
// status is returned as *models.DeliveryError.
func (s *Service) Dispatch(ctx context.Context, batch models.Batch) error {
	if s.url == "" {
		return &models.ConfigurationError{Field: "webhook.url", Reason: "is required"}
	}

	body := BuildPayload(batch)

	startTime := time.Now()
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(s.url)
	if err != nil {
		return &models.DeliveryError{Err: fmt.Errorf("webhook request failed: %w", err)}
	}

	if res.IsError() || res.StatusCode() < 200 || res.StatusCode() > 299 {
		responseBody := res.String()
		if len(responseBody) > maxErrorBody {
			responseBody = responseBody[:maxErrorBody]
		}
		return &models.DeliveryError{StatusCode: res.StatusCode(), Body: responseBody}
	}

	s.logger.Info().
		Int("status", res.StatusCode()).
		Int("records", len(batch.Records)).
		Str("mode", string(batch.Mode)).
		Dur("duration", time.Since(startTime)).
		Msg("Batch delivered to webhook")

	return nil
}

// BuildPayload renders the JSON body for a batch
func BuildPayload(batch models.Batch) interface{} {
	records := batch.Records
	if records == nil {
		records = []models.CanonicalRecord{}
	}

	if batch.Mode == models.HarvestModeFull {
		fetchedAt := batch.FetchedAt
		if fetchedAt.IsZero() {
			fetchedAt = time.Now()
		}
		return fullPayload{
			Source:       models.SourceName,
			FetchedAt:    fetchedAt.UTC().Format(fetchedAtLayout),
			DateFilter:   batch.DateFilter,
			TotalRecords: len(records),
			Records:      records,
		}
	}

	return incrementalPayload{
		Meta: incrementalMeta{
			Source:         models.SourceName,
			DateFilter:     batch.DateFilter,
			PreviousCursor: batch.PreviousCursor,
			NewRecords:     len(records),
		},
		Records: records,
	}
}
