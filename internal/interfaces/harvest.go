package interfaces

import (
	"context"
	"iter"
	"net/http"

	"github.com/ternarybob/leadrelay/internal/models"
)

// LoginDriver drives the portal's interactive login and returns the cookies of
// the authenticated session. Locating form fields and the submit control is
// entirely its concern.
type LoginDriver interface {
	Login(ctx context.Context, creds models.Credentials) ([]*http.Cookie, error)
}

// SessionAcquirer turns credentials into the token pair used for direct API calls
type SessionAcquirer interface {
	Acquire(ctx context.Context, creds models.Credentials) (*models.AuthTokens, error)
}

// PortalClient calls the lead listing endpoint
type PortalClient interface {
	// FetchPage performs one authenticated listing call for a 1-based page number
	FetchPage(ctx context.Context, page int, tokens *models.AuthTokens, filters models.Filters) (*models.Page, error)

	// Pages lazily yields pages 1..N until a page carries no next-page signal.
	// The first error is yielded once and ends the sequence.
	Pages(ctx context.Context, tokens *models.AuthTokens, filters models.Filters) iter.Seq2[*models.Page, error]
}

// Harvester pages through the listing and returns records newer than the watermark
type Harvester interface {
	Harvest(ctx context.Context, tokens *models.AuthTokens, filters models.Filters, watermark string) (*models.HarvestResult, error)
}

// Dispatcher delivers a finished batch downstream in one call
type Dispatcher interface {
	Dispatch(ctx context.Context, batch models.Batch) error
}

// CursorStore persists the single watermark value across runs
type CursorStore interface {
	// Load returns the stored watermark, or models.EpochWatermark when none exists
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, watermark string) error
	Close() error
}
