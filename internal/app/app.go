package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/common"
	"github.com/ternarybob/leadrelay/internal/httpclient"
	"github.com/ternarybob/leadrelay/internal/interfaces"
	"github.com/ternarybob/leadrelay/internal/services/auth"
	"github.com/ternarybob/leadrelay/internal/services/browser"
	"github.com/ternarybob/leadrelay/internal/services/cursor"
	"github.com/ternarybob/leadrelay/internal/services/dispatcher"
	"github.com/ternarybob/leadrelay/internal/services/harvester"
	"github.com/ternarybob/leadrelay/internal/services/pipeline"
	"github.com/ternarybob/leadrelay/internal/services/portal"
	"github.com/ternarybob/leadrelay/internal/services/scheduler"
	"github.com/ternarybob/leadrelay/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	CursorStore   interfaces.CursorStore
	CursorService *cursor.Service

	LoginDriver      interfaces.LoginDriver
	AuthService      *auth.Service
	PortalClient     *portal.Client
	Harvester        *harvester.Service
	Dispatcher       *dispatcher.Service
	Pipeline         *pipeline.Service
	SchedulerService *scheduler.Service
}

// New validates the configuration and builds the full run pipeline.
// A *models.ConfigurationError is returned before anything is opened.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Debug().
		Str("mode", cfg.Harvest.Mode).
		Str("storage", cfg.Storage.Type).
		Msg("Application initialization complete")

	return app, nil
}

// NewCursorOnly opens just the cursor store. Used by the cursor maintenance
// commands, which need neither credentials nor a webhook.
func NewCursorOnly(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}
	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return app, nil
}

// initStorage opens the configured cursor backend
func (a *App) initStorage() error {
	store, err := storage.NewCursorStore(a.Logger, &a.Config.Storage)
	if err != nil {
		return err
	}
	a.CursorStore = store
	a.CursorService = cursor.NewService(store, a.Logger)

	a.Logger.Debug().
		Str("type", a.Config.Storage.Type).
		Str("cursor", a.Config.Storage.CursorName).
		Msg("Cursor store opened")
	return nil
}

// initServices wires login, listing, delivery and scheduling
func (a *App) initServices() error {
	cfg := a.Config

	a.LoginDriver = browser.NewDriver(browser.DriverConfig{
		LoginURL:       strings.TrimRight(cfg.Portal.BaseURL, "/") + "/",
		Headless:       cfg.Browser.Headless,
		NoSandbox:      cfg.Browser.NoSandbox,
		DisableGPU:     cfg.Browser.DisableGPU,
		UserAgent:      cfg.Browser.UserAgent,
		WindowWidth:    cfg.Browser.WindowWidth,
		WindowHeight:   cfg.Browser.WindowHeight,
		ExecutablePath: cfg.Browser.ExecutablePath,
		Timeout:        common.ParseDuration(cfg.Browser.Timeout, 60*time.Second),
		LoginSettle:    common.ParseDuration(cfg.Browser.LoginSettle, 2*time.Second),
		PostLoginWait:  common.ParseDuration(cfg.Browser.PostLoginWait, 5*time.Second),
		ScreenshotDir:  cfg.Browser.ScreenshotDir,
	}, a.Logger)

	a.AuthService = auth.NewService(a.LoginDriver, cfg.Portal.XSRFCookie, cfg.Portal.SessionCookie, a.Logger)

	a.PortalClient = portal.NewClient(
		portal.WithBaseURL(cfg.Portal.BaseURL),
		portal.WithHTTPClient(httpclient.NewDefaultHTTPClient(common.ParseDuration(cfg.Portal.RequestTimeout, portal.DefaultTimeout))),
		portal.WithLogger(a.Logger),
		portal.WithRateLimit(cfg.Portal.RequestsPerSecond),
		portal.WithMaxPages(cfg.Portal.MaxPages),
		portal.WithCookieNames(cfg.Portal.XSRFCookie, cfg.Portal.SessionCookie),
	)

	a.Harvester = harvester.NewService(a.PortalClient, cfg.HarvestMode(), a.Logger)

	a.Dispatcher = dispatcher.NewService(
		cfg.Webhook.URL,
		common.ParseDuration(cfg.Webhook.Timeout, 30*time.Second),
		a.Logger,
	)

	a.Pipeline = pipeline.NewService(
		pipeline.Options{
			Credentials:   cfg.Credentials(),
			Mode:          cfg.HarvestMode(),
			SearchBy:      cfg.Portal.SearchBy,
			Project:       cfg.Portal.Project,
			DateFilter:    cfg.Portal.DateFilter,
			DateRangeDays: cfg.Portal.DateRangeDays,
			DateLayout:    cfg.Portal.DateLayout,
		},
		a.AuthService,
		a.Harvester,
		a.Dispatcher,
		a.CursorService,
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(a.Pipeline, a.Logger)

	return nil
}

// Close stops the scheduler and releases the cursor store
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.CursorStore != nil {
		if err := a.CursorStore.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close cursor store")
			return err
		}
		a.Logger.Debug().Msg("Cursor store closed")
	}

	return nil
}
