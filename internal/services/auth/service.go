package auth

import (
	"context"
	"errors"
	"net/url"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/leadrelay/internal/httpclient"
	"github.com/ternarybob/leadrelay/internal/interfaces"
	"github.com/ternarybob/leadrelay/internal/models"
)

const (
	// DefaultXSRFCookie is the cookie carrying the URL-encoded CSRF token
	DefaultXSRFCookie = "XSRF-TOKEN"
	// DefaultSessionCookie is the portal session cookie
	DefaultSessionCookie = "sv_forms_session"
)

// Service bridges an interactive login into the token pair used for direct API calls
type Service struct {
	driver        interfaces.LoginDriver
	xsrfCookie    string
	sessionCookie string
	logger        arbor.ILogger
}

// NewService creates a session acquirer around a login driver.
// Empty cookie names fall back to the portal defaults.
func NewService(driver interfaces.LoginDriver, xsrfCookie, sessionCookie string, logger arbor.ILogger) *Service {
	if xsrfCookie == "" {
		xsrfCookie = DefaultXSRFCookie
	}
	if sessionCookie == "" {
		sessionCookie = DefaultSessionCookie
	}
	return &Service{
		driver:        driver,
		xsrfCookie:    xsrfCookie,
		sessionCookie: sessionCookie,
		logger:        logger,
	}
}

// Acquire logs in and extracts the CSRF token and session id from the session cookies.
// Missing credentials fail with *models.ConfigurationError before the driver is touched;
// anything else fails with *models.AuthenticationError.
func (s *Service) Acquire(ctx context.Context, creds models.Credentials) (*models.AuthTokens, error) {
	if creds.Email == "" {
		return nil, &models.ConfigurationError{Field: "portal.email", Reason: "is required"}
	}
	if creds.Password == "" {
		return nil, &models.ConfigurationError{Field: "portal.password", Reason: "is required"}
	}

	s.logger.Info().Msg("Logging in to portal")

	cookies, err := s.driver.Login(ctx, creds)
	if err != nil {
		var authErr *models.AuthenticationError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &models.AuthenticationError{Reason: "login flow failed", Err: err}
	}

	xsrf := httpclient.FindCookie(cookies, s.xsrfCookie)
	session := httpclient.FindCookie(cookies, s.sessionCookie)
	if xsrf == nil || xsrf.Value == "" || session == nil || session.Value == "" {
		s.logger.Error().
			Int("cookie_count", len(cookies)).
			Bool("has_xsrf", xsrf != nil).
			Bool("has_session", session != nil).
			Msg("Auth cookies not found after login")
		return nil, &models.AuthenticationError{Reason: "auth cookies not found"}
	}

	csrf, err := url.PathUnescape(xsrf.Value)
	if err != nil {
		return nil, &models.AuthenticationError{Reason: "malformed " + s.xsrfCookie + " cookie", Err: err}
	}

	s.logger.Debug().
		Int("cookie_count", len(cookies)).
		Msg("Session tokens extracted")

	return &models.AuthTokens{
		CSRFToken: csrf,
		SessionID: session.Value,
	}, nil
}
