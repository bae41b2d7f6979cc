package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mediumroast/mediumroast-go/token/keys"
)

// MaxAppTokenLifetime is the longest lifetime the authorization server accepts for an app JWT.
const MaxAppTokenLifetime = 10 * time.Minute

// Creator builds the short-lived JWTs an app presents when asking for installation tokens
type Creator struct {
	lifetime time.Duration
	nowFunc  func() time.Time
}

// CreatorOption configures a Creator
type CreatorOption func(*Creator)

// WithLifetime sets the app JWT lifetime. Values above MaxAppTokenLifetime are clamped.
func WithLifetime(lifetime time.Duration) CreatorOption {
	return func(c *Creator) {
		c.lifetime = lifetime
	}
}

// WithNowFunc sets the clock used for iat/exp (primarily for testing)
func WithNowFunc(now func() time.Time) CreatorOption {
	return func(c *Creator) {
		c.nowFunc = now
	}
}

// NewCreator creates a new app JWT creator
func NewCreator(options ...CreatorOption) *Creator {
	c := &Creator{}
	for _, opt := range options {
		opt(c)
	}

	if c.lifetime <= 0 || c.lifetime > MaxAppTokenLifetime {
		c.lifetime = MaxAppTokenLifetime
	}
	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	return c
}

// CreateAppToken creates an RS256 app assertion {iat, exp, iss} signed by signer
func (c *Creator) CreateAppToken(appID string, signer keys.Signer) (string, error) {
	if appID == "" {
		return "", fmt.Errorf("app id is required")
	}

	now := c.nowFunc()
	claims := jwtlib.RegisteredClaims{
		Issuer:    appID,                                      // The app identifier
		IssuedAt:  jwtlib.NewNumericDate(now),                 // Issued At: the time at which the token was issued
		ExpiresAt: jwtlib.NewNumericDate(now.Add(c.lifetime)), // Expiry: never more than ten minutes out
		ID:        uuid.New().String(),                        // Unique token ID
	}

	signedToken, err := signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign app JWT: %w", err)
	}
	return signedToken, nil
}
