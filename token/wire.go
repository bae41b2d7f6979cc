package token

import "time"

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// DeviceCodeGrant exchanges a device code for an access token.
	// Used in: Device Authorization Grant (RFC 8628)
	// Token request includes: client_id, device_code, grant_type
	DeviceCodeGrant GrantType = "urn:ietf:params:oauth:grant-type:device_code"
)

// Error codes returned by the token endpoint while polling a device code.
const (
	// ErrCodeAuthorizationPending means the user has not finished approving the request yet.
	// This is the only code the poll loop treats as retryable.
	ErrCodeAuthorizationPending = "authorization_pending"

	// ErrCodeExpiredToken means the device code lapsed before the user approved it.
	ErrCodeExpiredToken = "expired_token"
)

// Endpoint paths on the authorization and API hosts.
const (
	DeviceCodePath        = "/login/device/code"
	AccessTokenPath       = "/login/oauth/access_token"
	installationTokenPath = "/app/installations/%s/access_tokens"
)

// deviceTokenResponse is the token endpoint's reply while polling a device code.
// Either AccessToken or Error is set.
type deviceTokenResponse struct {
	// AccessToken is the issued bearer token.
	AccessToken string `json:"access_token,omitempty"`

	// TokenType indicates how to use the access token, e.g. "bearer".
	TokenType string `json:"token_type,omitempty"`

	// Scope lists the scopes actually granted.
	Scope string `json:"scope,omitempty"`

	// Error is the OAuth error code, e.g. "authorization_pending" or "access_denied".
	Error string `json:"error,omitempty"`

	// ErrorDescription is a human readable explanation of Error.
	ErrorDescription string `json:"error_description,omitempty"`
}

// installationTokenResponse is the reply from the installation token endpoint.
type installationTokenResponse struct {
	// Token is the installation access token.
	Token string `json:"token"`

	// ExpiresAt is set by the server; the client never chooses the lifetime.
	ExpiresAt time.Time `json:"expires_at"`
}
