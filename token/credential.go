package token

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// AuthType tags which acquisition strategy produced a Credential, and therefore which
// strategy re-derives it once it expires.
type AuthType string

const (
	AuthTypeDeviceFlow AuthType = "device-flow" // interactive OAuth device authorization grant
	AuthTypePAT        AuthType = "pat"         // personal access token read from a file
	AuthTypePEM        AuthType = "pem"         // installation token minted with an app JWT
)

// Valid reports whether t is one of the known strategies
func (t AuthType) Valid() bool {
	switch t {
	case AuthTypeDeviceFlow, AuthTypePAT, AuthTypePEM:
		return true
	}
	return false
}

// Credential is an issued bearer token. It is immutable: refreshing produces a new value.
// The zero expiry means the credential never expires.
type Credential struct {
	token     string
	expiresAt time.Time
	authType  AuthType
}

// NewCredential builds a Credential. A zero expiresAt marks it as never expiring.
func NewCredential(token string, expiresAt time.Time, authType AuthType) Credential {
	return Credential{
		token:     token,
		expiresAt: expiresAt,
		authType:  authType,
	}
}

// Token returns the opaque bearer token
func (c Credential) Token() string {
	return c.token
}

// ExpiresAt returns the absolute expiry; zero when the credential never expires
func (c Credential) ExpiresAt() time.Time {
	return c.expiresAt
}

// AuthType returns the strategy that produced the credential
func (c Credential) AuthType() AuthType {
	return c.authType
}

// NeverExpires reports whether the credential has no expiry
func (c Credential) NeverExpires() bool {
	return c.expiresAt.IsZero()
}

// ExpiredAt reports whether the credential is expired at now
func (c Credential) ExpiredAt(now time.Time) bool {
	if c.NeverExpires() {
		return false
	}
	return !now.Before(c.expiresAt)
}

// OAuth2Token converts the credential for use with an oauth2 transport
func (c Credential) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: c.token,
		TokenType:   "Bearer",
		Expiry:      c.expiresAt,
	}
}

// String describes the credential without revealing the secret
func (c Credential) String() string {
	expiry := "never"
	if !c.NeverExpires() {
		expiry = c.expiresAt.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("Credential{authType: %s, expiresAt: %s, token: %s}", c.authType, expiry, redact(c.token))
}

func redact(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}

// RefreshParams holds the secondary parameters a caller must retain alongside a Credential.
// Which fields are required depends on the credential's AuthType.
type RefreshParams struct {
	ClientID string // device-flow: OAuth client ID

	PATFilePath string // pat: file holding the token

	PEMFilePath    string // pem: app private key
	AppID          string // pem: app identifier (JWT issuer)
	InstallationID string // pem: installation the token is scoped to
}

// validateFor checks that the parameters required by authType are present
func (p RefreshParams) validateFor(authType AuthType) error {
	var missing []string
	switch authType {
	case AuthTypeDeviceFlow:
		if p.ClientID == "" {
			missing = append(missing, "client id")
		}
	case AuthTypePAT:
		if p.PATFilePath == "" {
			missing = append(missing, "PAT file path")
		}
	case AuthTypePEM:
		if p.PEMFilePath == "" {
			missing = append(missing, "PEM file path")
		}
		if p.AppID == "" {
			missing = append(missing, "app id")
		}
		if p.InstallationID == "" {
			missing = append(missing, "installation id")
		}
	default:
		return fmt.Errorf("%w: unknown auth type %q", ErrConfig, authType)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s refresh requires %v", ErrConfig, authType, missing)
	}
	return nil
}
