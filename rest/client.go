package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	autherrors "github.com/mediumroast/mediumroast-go/internal/errors"
	"github.com/mediumroast/mediumroast-go/objects"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout bounds a single request, including reading the response
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the client to the object API
	DefaultUserAgent = "mediumroast-go"

	// RequestIDHeader correlates a request with server-side logs
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 10 << 20
)

// Client is the JSON transport for the object API. Every request is authorized by the
// configured token source, if any.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
	timeout     time.Duration
	userAgent   string
	logger      zerolog.Logger
}

var _ objects.Transport = (*Client)(nil)

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTokenSource authorizes every request with the source's current bearer token
func WithTokenSource(src oauth2.TokenSource) ClientOption {
	return func(c *Client) {
		c.tokenSource = src
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a Client for the API rooted at baseURL
func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		logger:    zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.tokenSource != nil {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		authorized := *c.httpClient
		authorized.Transport = &oauth2.Transport{Source: c.tokenSource, Base: base}
		c.httpClient = &authorized
	}
	return c
}

// GetObj reads objects from endpoint. A nil body issues a GET; otherwise the body is
// sent as JSON in a POST, which is how filtered reads are expressed.
func (c *Client) GetObj(ctx context.Context, endpoint string, body any) ([]byte, error) {
	if body == nil {
		return c.send(ctx, http.MethodGet, endpoint, nil)
	}
	return c.send(ctx, http.MethodPost, endpoint, body)
}

// PostObj sends body as JSON to endpoint
func (c *Client) PostObj(ctx context.Context, endpoint string, body any) ([]byte, error) {
	return c.send(ctx, http.MethodPost, endpoint, body)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, autherrors.Wrapf(err, "encoding %s request body", endpoint)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("endpoint", endpoint).Str("request_id", requestID).Msg("request failed")
		return nil, &autherrors.TransportError{Method: method, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &autherrors.TransportError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("object API call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &autherrors.TransportError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}
