package models

import "fmt"

// ConfigurationError reports missing or invalid inputs. It is always raised
// before any browser or network activity.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// AuthenticationError reports that the portal session could not be established.
// It is terminal for the run and never retried.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// APIError reports a failed lead listing call. StatusCode is 0 when the
// request never produced a response (transport failure, timeout, bad body).
type APIError struct {
	Page       int
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("portal API error on page %d (status %d): %v", e.Page, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("portal API error on page %d (status %d): %s", e.Page, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// DeliveryError reports that the webhook did not unambiguously accept the batch
type DeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("delivery failed (status %d): %s", e.StatusCode, e.Body)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
