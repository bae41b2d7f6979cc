package token

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	autherrors "github.com/mediumroast/mediumroast-go/internal/errors"
	"github.com/mediumroast/mediumroast-go/token/jwt"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"
)

// Defaults for a GitHub-style authorization server
const (
	DefaultAuthHost = "https://github.com"
	DefaultAPIHost  = "https://api.github.com"
	DefaultAccept   = "application/vnd.github.v3+json"
	DefaultScope    = "repo"

	// DeviceFlowTokenLifetime is assumed for device-flow tokens; the server's value is not read.
	DeviceFlowTokenLifetime = 3600 * time.Second

	defaultPollInterval = 5 * time.Second
	defaultHTTPTimeout  = 30 * time.Second
	maxResponseBytes    = 1 << 20
)

// SleepFunc blocks for d or until ctx is done, whichever comes first
type SleepFunc func(ctx context.Context, d time.Duration) error

// Provider acquires Credentials with one of three strategies and re-derives expired ones
// with the strategy that produced them. It holds configuration only; it never caches tokens.
type Provider struct {
	httpClient  *http.Client
	authHost    string // OAuth device-flow host
	apiHost     string // installation token host
	accept      string // Accept header for the API host
	scope       string // device-flow scope
	nowFunc     func() time.Time
	sleepFunc   SleepFunc
	openBrowser func(url string) error
	out         io.Writer // interactive surface for the device flow
	logger      zerolog.Logger
	metrics     *Metrics
	jwtCreator  *jwt.Creator
}

// ProviderOption configures a Provider
type ProviderOption func(*Provider)

// WithHTTPClient sets the HTTP client used for every authorization request
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// WithAuthHost sets the device-flow host, e.g. "https://github.com"
func WithAuthHost(host string) ProviderOption {
	return func(p *Provider) {
		p.authHost = strings.TrimSuffix(host, "/")
	}
}

// WithAPIHost sets the installation token host, e.g. "https://api.github.com"
func WithAPIHost(host string) ProviderOption {
	return func(p *Provider) {
		p.apiHost = strings.TrimSuffix(host, "/")
	}
}

// WithAccept sets the Accept header sent to the API host
func WithAccept(accept string) ProviderOption {
	return func(p *Provider) {
		p.accept = accept
	}
}

// WithScope sets the scope requested by the device flow
func WithScope(scope string) ProviderOption {
	return func(p *Provider) {
		p.scope = scope
	}
}

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.nowFunc = now
	}
}

// WithSleepFunc sets how the device flow waits between polls (primarily for testing)
func WithSleepFunc(sleep SleepFunc) ProviderOption {
	return func(p *Provider) {
		p.sleepFunc = sleep
	}
}

// WithBrowserOpener sets how the verification URI is opened
func WithBrowserOpener(open func(url string) error) ProviderOption {
	return func(p *Provider) {
		p.openBrowser = open
	}
}

// WithOutput sets where the device flow prints the user code
func WithOutput(w io.Writer) ProviderOption {
	return func(p *Provider) {
		p.out = w
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithMetrics enables acquisition metrics
func WithMetrics(metrics *Metrics) ProviderOption {
	return func(p *Provider) {
		p.metrics = metrics
	}
}

// NewProvider creates a Provider. Without options it talks to github.com.
func NewProvider(options ...ProviderOption) *Provider {
	p := &Provider{
		authHost:    DefaultAuthHost,
		apiHost:     DefaultAPIHost,
		accept:      DefaultAccept,
		scope:       DefaultScope,
		sleepFunc:   sleepContext,
		openBrowser: browser.OpenURL,
		out:         os.Stdout,
		logger:      zerolog.Nop(),
	}

	for _, opt := range options {
		opt(p)
	}

	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if p.nowFunc == nil {
		p.nowFunc = time.Now
	}
	p.jwtCreator = jwt.NewCreator(jwt.WithNowFunc(p.nowFunc))
	return p
}

// CheckAndRefresh returns cred unchanged while it is valid. Once expired it acquires a new
// Credential with the strategy named by cred.AuthType, using params for the secondary inputs.
// An unknown AuthType is always a ConfigError, whether or not the credential has expired.
func (p *Provider) CheckAndRefresh(ctx context.Context, cred Credential, params RefreshParams) (Credential, error) {
	if !cred.authType.Valid() {
		return Credential{}, fmt.Errorf("%w: unknown auth type %q", ErrConfig, cred.authType)
	}
	if !cred.ExpiredAt(p.nowFunc()) {
		return cred, nil
	}
	if err := params.validateFor(cred.authType); err != nil {
		return Credential{}, err
	}

	p.logger.Info().
		Str("auth_type", string(cred.authType)).
		Time("expired_at", cred.expiresAt).
		Msg("credential expired, refreshing")

	var refreshed Credential
	var err error
	switch cred.authType {
	case AuthTypeDeviceFlow:
		refreshed, err = p.AcquireViaDeviceFlow(ctx, params.ClientID)
	case AuthTypePAT:
		refreshed, err = p.AcquireViaPersonalAccessToken(params.PATFilePath)
	case AuthTypePEM:
		refreshed, err = p.AcquireViaInstallationPEM(ctx, params.PEMFilePath, params.AppID, params.InstallationID)
	default:
		return Credential{}, fmt.Errorf("%w: unknown auth type %q", ErrConfig, cred.authType)
	}
	p.metrics.observeRefresh(cred.authType, err)
	if err != nil {
		return Credential{}, fmt.Errorf("refreshing %s credential: %w", cred.authType, err)
	}
	return refreshed, nil
}

// do executes req and returns the status and a bounded copy of the body.
// Failures to complete the round trip come back as *TransportError.
func (p *Provider) do(req *http.Request) (int, []byte, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, nil, &autherrors.TransportError{Method: req.Method, Endpoint: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, &autherrors.TransportError{Method: req.Method, Endpoint: req.URL.String(), Err: err}
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// authErrorFromBody builds an AuthError, lifting the OAuth error fields when the body is JSON
func authErrorFromBody(status int, body []byte) *AuthError {
	authErr := &AuthError{StatusCode: status, Payload: strings.TrimSpace(string(body))}

	var fields struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
	}
	if err := json.Unmarshal(body, &fields); err == nil {
		authErr.Code = fields.Error
		authErr.Description = fields.ErrorDescription
		if authErr.Description == "" {
			authErr.Description = fields.Message
		}
	}
	return authErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
