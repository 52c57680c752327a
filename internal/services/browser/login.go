package browser

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/models"
)

const (
	passwordSelector = `input[type="password"]`
	emailSelector    = `input[type="email"], input[name="email"]`
)

// DriverConfig holds configuration for the login browser
type DriverConfig struct {
	LoginURL       string
	Headless       bool
	NoSandbox      bool
	DisableGPU     bool
	UserAgent      string
	WindowWidth    int
	WindowHeight   int
	ExecutablePath string
	Timeout        time.Duration // bound on each browser step
	LoginSettle    time.Duration
	PostLoginWait  time.Duration
	ScreenshotDir  string
}

// Driver logs into the portal with a throwaway headless Chrome and hands back
// the session cookies. It implements interfaces.LoginDriver.
type Driver struct {
	config DriverConfig
	logger arbor.ILogger
}

// NewDriver creates a chromedp login driver
func NewDriver(config DriverConfig, logger arbor.ILogger) *Driver {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &Driver{
		config: config,
		logger: logger,
	}
}

// Login fills and submits the login form, then reads the session cookies.
// A screenshot is written to ScreenshotDir when any step fails.
func (d *Driver) Login(ctx context.Context, creds models.Credentials) ([]*http.Cookie, error) {
	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.config.Headless),
		chromedp.Flag("disable-gpu", d.config.DisableGPU),
		chromedp.Flag("no-sandbox", d.config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if d.config.UserAgent != "" {
		allocatorOpts = append(allocatorOpts, chromedp.UserAgent(d.config.UserAgent))
	}
	if d.config.WindowWidth > 0 && d.config.WindowHeight > 0 {
		allocatorOpts = append(allocatorOpts, chromedp.WindowSize(d.config.WindowWidth, d.config.WindowHeight))
	}
	if d.config.ExecutablePath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(d.config.ExecutablePath))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	defer allocatorCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	defer browserCancel()

	// Start the browser on the long-lived context; step timeouts must not own it
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	startTime := time.Now()
	cookies, err := d.login(browserCtx, creds)
	if err != nil {
		d.captureScreenshot(browserCtx)
		return nil, err
	}

	d.logger.Info().
		Int("cookie_count", len(cookies)).
		Dur("duration", time.Since(startTime)).
		Msg("Portal login completed")

	return cookies, nil
}

func (d *Driver) login(browserCtx context.Context, creds models.Credentials) ([]*http.Cookie, error) {
	d.logger.Debug().Str("url", d.config.LoginURL).Msg("Opening login page")

	if err := d.step(browserCtx, "open login page",
		chromedp.Navigate(d.config.LoginURL),
		chromedp.WaitVisible(passwordSelector, chromedp.ByQuery),
	); err != nil {
		return nil, err
	}

	if err := d.step(browserCtx, "fill login form",
		chromedp.SendKeys(emailSelector, creds.Email, chromedp.ByQuery),
		chromedp.SendKeys(passwordSelector, creds.Password, chromedp.ByQuery),
		chromedp.Sleep(d.config.LoginSettle),
	); err != nil {
		return nil, err
	}

	var html string
	if err := d.step(browserCtx, "read login page",
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, err
	}

	submit, err := findSubmitControl(html)
	if err != nil {
		return nil, err
	}
	d.logger.Debug().Str("selector", submit).Msg("Submitting login form")

	if err := d.step(browserCtx, "submit login form",
		chromedp.Click(submit, chromedp.BySearch),
		chromedp.Sleep(d.config.PostLoginWait),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, err
	}

	var browserCookies []*network.Cookie
	if err := d.step(browserCtx, "read cookies",
		chromedp.ActionFunc(func(ctx context.Context) error {
			cookies, err := network.GetCookies().WithURLs([]string{d.config.LoginURL}).Do(ctx)
			if err != nil {
				return err
			}
			browserCookies = cookies
			return nil
		}),
	); err != nil {
		return nil, err
	}

	return toHTTPCookies(browserCookies), nil
}

// step runs actions under the per-step timeout
func (d *Driver) step(browserCtx context.Context, name string, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(browserCtx, d.config.Timeout)
	defer cancel()

	if err := chromedp.Run(stepCtx, actions...); err != nil {
		d.logger.Error().Err(err).Str("step", name).Msg("Login step failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (d *Driver) captureScreenshot(browserCtx context.Context) {
	if d.config.ScreenshotDir == "" {
		return
	}

	shotCtx, cancel := context.WithTimeout(browserCtx, 10*time.Second)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(shotCtx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to capture login failure screenshot")
		return
	}

	if err := os.MkdirAll(d.config.ScreenshotDir, 0755); err != nil {
		d.logger.Warn().Err(err).Str("dir", d.config.ScreenshotDir).Msg("Failed to create screenshot directory")
		return
	}

	path := filepath.Join(d.config.ScreenshotDir, fmt.Sprintf("login-error-%s.png", time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, buf, 0644); err != nil {
		d.logger.Warn().Err(err).Str("path", path).Msg("Failed to write login failure screenshot")
		return
	}

	d.logger.Info().Str("path", path).Msg("Login failure screenshot saved")
}

func toHTTPCookies(cookies []*network.Cookie) []*http.Cookie {
	result := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		httpCookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		// Session cookies report a non-positive expiry
		if c.Expires > 0 {
			httpCookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		result = append(result, httpCookie)
	}
	return result
}
