package common

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/leadrelay/internal/models"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Portal      PortalConfig    `toml:"portal"`
	Webhook     WebhookConfig   `toml:"webhook"`
	Harvest     HarvestConfig   `toml:"harvest"`
	Browser     BrowserConfig   `toml:"browser"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

// PortalConfig holds the lead portal account and listing query settings
type PortalConfig struct {
	BaseURL           string  `toml:"base_url" validate:"required,url"`
	Email             string  `toml:"email" validate:"required"`
	Password          string  `toml:"password" validate:"required"`
	SearchBy          string  `toml:"search_by"`       // searchBy body value (default: "contact")
	Project           string  `toml:"project"`         // project selector, sent as a number when numeric
	DateFilter        string  `toml:"date_filter"`     // Verbatim dateFilter override, e.g. "01/01/2024 - 01/31/2024"
	DateRangeDays     int     `toml:"date_range_days"` // Trailing window when no override is set; 0 disables the date filter
	DateLayout        string  `toml:"date_layout"`     // Go layout the portal UI uses for each date (default: "01/02/2006")
	XSRFCookie        string  `toml:"xsrf_cookie"`
	SessionCookie     string  `toml:"session_cookie"`
	RequestTimeout    string  `toml:"request_timeout"` // per page request, e.g. "30s"
	RequestsPerSecond float64 `toml:"requests_per_second"`
	MaxPages          int     `toml:"max_pages"` // 0 = follow next_page_url until it disappears
}

// WebhookConfig holds the downstream delivery endpoint
type WebhookConfig struct {
	URL     string `toml:"url" validate:"required,url"`
	Timeout string `toml:"timeout"`
}

// HarvestConfig selects the harvest mode
type HarvestConfig struct {
	Mode string `toml:"mode" validate:"oneof=incremental full"`
}

// BrowserConfig configures the headless Chrome used for login
type BrowserConfig struct {
	Headless       bool   `toml:"headless"`
	NoSandbox      bool   `toml:"no_sandbox"`
	DisableGPU     bool   `toml:"disable_gpu"`
	UserAgent      string `toml:"user_agent"`
	WindowWidth    int    `toml:"window_width"`
	WindowHeight   int    `toml:"window_height"`
	Timeout        string `toml:"timeout"`         // bound on every browser step
	LoginSettle    string `toml:"login_settle"`    // pause after filling the form
	PostLoginWait  string `toml:"post_login_wait"` // pause after clicking the submit control
	ScreenshotDir  string `toml:"screenshot_dir"`  // empty disables screenshot on failure
	ExecutablePath string `toml:"executable_path"` // optional Chrome binary
}

type StorageConfig struct {
	Type       string       `toml:"type" validate:"oneof=badger file"` // "badger" or "file"
	CursorName string       `toml:"cursor_name" validate:"required"`
	Badger     BadgerConfig `toml:"badger"`
	File       FileConfig   `toml:"file"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// FileConfig configures the JSON cursor file backend
type FileConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // default: "15:04:05"
	Dir        string   `toml:"dir"`         // log and crash file directory
}

// SchedulerConfig drives the serve command
type SchedulerConfig struct {
	Schedule   string `toml:"schedule"` // cron expression with seconds field
	RunOnStart bool   `toml:"run_on_start"`
}

// NewDefaultConfig creates a configuration with default values.
// Credentials and the webhook URL have no defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Portal: PortalConfig{
			BaseURL:           "https://svform.urbanriseprojects.in",
			SearchBy:          "contact",
			Project:           "13",
			DateRangeDays:     30,
			DateLayout:        "01/02/2006",
			XSRFCookie:        "XSRF-TOKEN",
			SessionCookie:     "sv_forms_session",
			RequestTimeout:    "30s",
			RequestsPerSecond: 2,
		},
		Webhook: WebhookConfig{
			Timeout: "30s",
		},
		Harvest: HarvestConfig{
			Mode: string(models.HarvestModeIncremental),
		},
		Browser: BrowserConfig{
			Headless:      true,
			DisableGPU:    true,
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WindowWidth:   1280,
			WindowHeight:  800,
			Timeout:       "60s",
			LoginSettle:   "2s",
			PostLoginWait: "5s",
			ScreenshotDir: "./logs",
		},
		Storage: StorageConfig{
			Type:       "badger",
			CursorName: "urbanrise_leads",
			Badger: BadgerConfig{
				Path: "./data",
			},
			File: FileConfig{
				Path: "./data/cursor.json",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
			Dir:        "./logs",
		},
		Scheduler: SchedulerConfig{
			Schedule:   "0 0 * * * *", // hourly
			RunOnStart: true,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI overrides are applied afterwards by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LEADRELAY_ENV"); env != "" {
		config.Environment = env
	}

	// Credentials and webhook keep the names the deployment already exports
	if email := os.Getenv("PORTAL_EMAIL"); email != "" {
		config.Portal.Email = email
	}
	if password := os.Getenv("PORTAL_PASSWORD"); password != "" {
		config.Portal.Password = password
	}
	if webhook := os.Getenv("VIASOCKET_WEBHOOK"); webhook != "" {
		config.Webhook.URL = webhook
	}

	// Portal query
	if baseURL := os.Getenv("LEADRELAY_PORTAL_BASE_URL"); baseURL != "" {
		config.Portal.BaseURL = baseURL
	}
	if project := os.Getenv("LEADRELAY_PROJECT"); project != "" {
		config.Portal.Project = project
	}
	if searchBy := os.Getenv("LEADRELAY_SEARCH_BY"); searchBy != "" {
		config.Portal.SearchBy = searchBy
	}
	if dateFilter := os.Getenv("LEADRELAY_DATE_FILTER"); dateFilter != "" {
		config.Portal.DateFilter = dateFilter
	}
	if days := os.Getenv("LEADRELAY_DATE_RANGE_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Portal.DateRangeDays = d
		}
	}
	if maxPages := os.Getenv("LEADRELAY_MAX_PAGES"); maxPages != "" {
		if mp, err := strconv.Atoi(maxPages); err == nil {
			config.Portal.MaxPages = mp
		}
	}

	// Harvest
	if mode := os.Getenv("LEADRELAY_HARVEST_MODE"); mode != "" {
		config.Harvest.Mode = strings.ToLower(strings.TrimSpace(mode))
	}

	// Browser
	if headless := os.Getenv("LEADRELAY_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}
	if noSandbox := os.Getenv("LEADRELAY_NO_SANDBOX"); noSandbox != "" {
		if ns, err := strconv.ParseBool(noSandbox); err == nil {
			config.Browser.NoSandbox = ns
		}
	}
	if screenshotDir, ok := os.LookupEnv("LEADRELAY_SCREENSHOT_DIR"); ok {
		config.Browser.ScreenshotDir = screenshotDir
	}

	// Storage
	if storageType := os.Getenv("LEADRELAY_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}
	if badgerPath := os.Getenv("LEADRELAY_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if cursorFile := os.Getenv("LEADRELAY_CURSOR_FILE"); cursorFile != "" {
		config.Storage.File.Path = cursorFile
	}

	// Logging
	if level := os.Getenv("LEADRELAY_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("LEADRELAY_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Scheduler
	if schedule := os.Getenv("LEADRELAY_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// FlagOverrides carries command-line values that take priority over everything else
type FlagOverrides struct {
	Mode       string
	DateFilter string
	LogLevel   string
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, flags FlagOverrides) {
	if flags.Mode != "" {
		config.Harvest.Mode = strings.ToLower(flags.Mode)
	}
	if flags.DateFilter != "" {
		config.Portal.DateFilter = flags.DateFilter
	}
	if flags.LogLevel != "" {
		config.Logging.Level = flags.LogLevel
	}
}

// Validate checks required inputs and returns a *models.ConfigurationError
// describing the first problem found.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("toml"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return &models.ConfigurationError{
				Field:  strings.TrimPrefix(fe.Namespace(), "Config."),
				Reason: describeValidation(fe),
			}
		}
		return &models.ConfigurationError{Reason: err.Error()}
	}

	durations := map[string]string{
		"portal.request_timeout":  c.Portal.RequestTimeout,
		"webhook.timeout":         c.Webhook.Timeout,
		"browser.timeout":         c.Browser.Timeout,
		"browser.login_settle":    c.Browser.LoginSettle,
		"browser.post_login_wait": c.Browser.PostLoginWait,
	}
	for field, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return &models.ConfigurationError{Field: field, Reason: fmt.Sprintf("invalid duration %q", value)}
		}
	}

	if c.Portal.DateRangeDays < 0 {
		return &models.ConfigurationError{Field: "portal.date_range_days", Reason: "must not be negative"}
	}
	if c.Portal.MaxPages < 0 {
		return &models.ConfigurationError{Field: "portal.max_pages", Reason: "must not be negative"}
	}
	if c.Scheduler.Schedule != "" {
		if err := ValidateSchedule(c.Scheduler.Schedule); err != nil {
			return &models.ConfigurationError{Field: "scheduler.schedule", Reason: err.Error()}
		}
	}

	return nil
}

func describeValidation(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return fmt.Sprintf("must be an absolute URL, got %q", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// HarvestMode returns the configured mode as a typed value
func (c *Config) HarvestMode() models.HarvestMode {
	return models.HarvestMode(c.Harvest.Mode)
}

// Credentials returns the portal account credentials
func (c *Config) Credentials() models.Credentials {
	return models.Credentials{
		Email:    c.Portal.Email,
		Password: c.Portal.Password,
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ParseDuration parses s, falling back to def when s is empty or invalid
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
