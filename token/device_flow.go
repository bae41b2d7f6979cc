package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

// AcquireViaDeviceFlow runs the OAuth device authorization grant for clientID.
// It opens the verification URI, prints the user code, and blocks polling the token endpoint
// until the user approves, the server rejects, the device code expires, or ctx is cancelled.
// Only "authorization_pending" is retried, whether it arrives with a 200 or a 400.
// An expired device code surfaces as an AuthError with code "expired_token".
// The returned token is assumed to live one hour.
func (p *Provider) AcquireViaDeviceFlow(ctx context.Context, clientID string) (cred Credential, err error) {
	started := time.Now()
	defer func() { p.metrics.observeAcquisition(AuthTypeDeviceFlow, started, err) }()

	if err := (RefreshParams{ClientID: clientID}).validateFor(AuthTypeDeviceFlow); err != nil {
		return Credential{}, err
	}

	cfg := &oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: p.authHost + DeviceCodePath,
			TokenURL:      p.authHost + AccessTokenPath,
		},
	}
	if p.scope != "" {
		cfg.Scopes = []string{p.scope}
	}

	session, err := p.requestDeviceCode(ctx, cfg)
	if err != nil {
		return Credential{}, err
	}

	pollCtx := ctx
	if !session.Expiry.IsZero() {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithDeadline(ctx, session.Expiry)
		defer cancel()
	}

	p.promptUser(session)

	accessToken, err := p.pollDeviceToken(pollCtx, cfg, session)
	if err != nil {
		// the device code deadline fired while the caller was still waiting
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Credential{}, fmt.Errorf("polling for device token: %w", &AuthError{
				Code:        ErrCodeExpiredToken,
				Description: "device code expired",
			})
		}
		return Credential{}, err
	}

	p.logger.Info().Str("auth_type", string(AuthTypeDeviceFlow)).Msg("device flow authorized")
	return NewCredential(accessToken, p.nowFunc().Add(DeviceFlowTokenLifetime), AuthTypeDeviceFlow), nil
}

// requestDeviceCode asks the authorization server for a device code and user code
func (p *Provider) requestDeviceCode(ctx context.Context, cfg *oauth2.Config) (*oauth2.DeviceAuthResponse, error) {
	session, err := cfg.DeviceAuth(context.WithValue(ctx, oauth2.HTTPClient, p.httpClient))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			authErr := authErrorFromBody(0, retrieveErr.Body)
			if retrieveErr.Response != nil {
				authErr.StatusCode = retrieveErr.Response.StatusCode
			}
			return nil, fmt.Errorf("requesting device code: %w", authErr)
		}
		return nil, &TransportError{Method: http.MethodPost, Endpoint: cfg.Endpoint.DeviceAuthURL, Err: err}
	}
	if session.DeviceCode == "" {
		return nil, fmt.Errorf("requesting device code: %w", &AuthError{Description: "response missing device_code"})
	}
	return session, nil
}

// promptUser is the human-in-the-loop step: open the browser and show the user code
func (p *Provider) promptUser(session *oauth2.DeviceAuthResponse) {
	if err := p.openBrowser(session.VerificationURI); err != nil {
		p.logger.Warn().Err(err).Str("verification_uri", session.VerificationURI).Msg("could not open browser")
	}
	fmt.Fprintf(p.out, "Open %s in your browser\n", session.VerificationURI)
	fmt.Fprintf(p.out, "Enter the user code: %s\n", session.UserCode)
}

// pollDeviceToken polls immediately, then once per interval while authorization is pending
func (p *Provider) pollDeviceToken(ctx context.Context, cfg *oauth2.Config, session *oauth2.DeviceAuthResponse) (string, error) {
	interval := time.Duration(session.Interval) * time.Second
	if interval <= 0 {
		interval = defaultPollInterval
	}

	form := url.Values{
		"client_id":   {cfg.ClientID},
		"device_code": {session.DeviceCode},
		"grant_type":  {string(DeviceCodeGrant)},
	}

	for attempt := 1; ; attempt++ {
		resp, err := p.requestDeviceToken(ctx, cfg.Endpoint.TokenURL, form)
		if err != nil {
			return "", err
		}

		switch {
		case resp.AccessToken != "":
			return resp.AccessToken, nil
		case resp.Error == ErrCodeAuthorizationPending:
			p.logger.Debug().Int("attempt", attempt).Dur("interval", interval).Msg("authorization pending")
			if err := p.sleepFunc(ctx, interval); err != nil {
				return "", fmt.Errorf("device flow interrupted: %w", err)
			}
		default:
			return "", fmt.Errorf("polling for device token: %w", &AuthError{
				StatusCode:  resp.status,
				Code:        resp.Error,
				Description: resp.ErrorDescription,
				Payload:     string(resp.raw),
			})
		}
	}
}

type polledToken struct {
	deviceTokenResponse
	status int
	raw    []byte
}

func (p *Provider) requestDeviceToken(ctx context.Context, tokenURL string, form url.Values) (*polledToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	status, body, err := p.do(req)
	if err != nil {
		return nil, err
	}

	resp := &polledToken{status: status, raw: body}
	decodeErr := json.Unmarshal(body, &resp.deviceTokenResponse)

	// RFC 8628 servers report pending and terminal codes with a 400
	if !isSuccess(status) {
		if status == http.StatusBadRequest && decodeErr == nil && resp.Error != "" {
			return resp, nil
		}
		return nil, fmt.Errorf("polling for device token: %w", authErrorFromBody(status, body))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("polling for device token: %w", &AuthError{
			StatusCode:  status,
			Description: "unparseable token response",
			Payload:     string(body),
		})
	}
	return resp, nil
}
