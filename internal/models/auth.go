package models

// Credentials identify the portal account. They are supplied by configuration
// and never persisted.
type Credentials struct {
	Email    string
	Password string
}

// AuthTokens are the cookie values lifted from an authenticated browser session.
// They live for a single run and are reused verbatim on every API call.
type AuthTokens struct {
	CSRFToken string // URL-decoded XSRF-TOKEN cookie
	SessionID string // portal session cookie
}
