package objects

import (
	"bytes"
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	autherrors "github.com/mediumroast/mediumroast-go/internal/errors"
	"github.com/rs/zerolog"
)

// Endpoint names of the object API
const (
	EndpointGetAll   = "getall"
	EndpointGetByX   = "getbyx"
	EndpointRegister = "register"
	EndpointUpdate   = "update"
)

// DefaultAPIVersion is the object API version used when none is given
const DefaultAPIVersion = "v1"

// ErrUnsupported is returned by operations the object API does not offer
var ErrUnsupported = autherrors.ErrUnsupported

// Transport performs authorized JSON calls against the object API.
// GetObj reads; a non-nil body turns it into a filtered read.
type Transport interface {
	GetObj(ctx context.Context, endpoint string, body any) ([]byte, error)
	PostObj(ctx context.Context, endpoint string, body any) ([]byte, error)
}

// Query is the filter body sent to the getbyx endpoint
type Query struct {
	GetByX  string `json:"getByX"`
	XEquals string `json:"xEquals"`
}

// Result is the server's answer to a create or update
type Result map[string]any

// Accessor is a CRUD client for one object type
type Accessor[T any] struct {
	transport  Transport
	objectType string
	apiVersion string
	logger     zerolog.Logger
}

// AccessorOption configures an Accessor
type AccessorOption func(*accessorConfig)

type accessorConfig struct {
	apiVersion string
	logger     zerolog.Logger
}

// WithAPIVersion sets the API version segment of every endpoint
func WithAPIVersion(version string) AccessorOption {
	return func(c *accessorConfig) {
		c.apiVersion = version
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) AccessorOption {
	return func(c *accessorConfig) {
		c.logger = logger
	}
}

// New creates an Accessor for objectType over transport
func New[T any](transport Transport, objectType string, options ...AccessorOption) *Accessor[T] {
	cfg := accessorConfig{
		apiVersion: DefaultAPIVersion,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(&cfg)
	}

	return &Accessor[T]{
		transport:  transport,
		objectType: objectType,
		apiVersion: cfg.apiVersion,
		logger:     cfg.logger.With().Str("object_type", objectType).Logger(),
	}
}

// ObjectType returns the type segment of the accessor's endpoints
func (a *Accessor[T]) ObjectType() string {
	return a.objectType
}

// Endpoint composes the path for name, e.g. "/v1/users/getall"
func (a *Accessor[T]) Endpoint(name string) string {
	return "/" + a.apiVersion + "/" + a.objectType + "/" + name
}

// ListAll returns every object of the accessor's type
func (a *Accessor[T]) ListAll(ctx context.Context) ([]T, error) {
	endpoint := a.Endpoint(EndpointGetAll)
	data, err := a.transport.GetObj(ctx, endpoint, nil)
	if err != nil {
		return nil, autherrors.Wrapf(err, "listing %s", a.objectType)
	}
	return decodeList[T](data, endpoint)
}

// GetByName returns the objects whose name equals name
func (a *Accessor[T]) GetByName(ctx context.Context, name string) ([]T, error) {
	return a.GetByAttribute(ctx, "name", name)
}

// GetByID returns the objects whose id equals id
func (a *Accessor[T]) GetByID(ctx context.Context, id string) ([]T, error) {
	return a.GetByAttribute(ctx, "id", id)
}

// GetByAttribute returns the objects whose field equals value
func (a *Accessor[T]) GetByAttribute(ctx context.Context, field, value string) ([]T, error) {
	endpoint := a.Endpoint(EndpointGetByX)
	a.logger.Debug().Str("field", field).Msg("querying objects")

	data, err := a.transport.GetObj(ctx, endpoint, Query{GetByX: field, XEquals: value})
	if err != nil {
		return nil, autherrors.Wrapf(err, "getting %s by %s", a.objectType, field)
	}
	return decodeList[T](data, endpoint)
}

// Create registers a new object
func (a *Accessor[T]) Create(ctx context.Context, obj T) (Result, error) {
	return a.post(ctx, EndpointRegister, obj)
}

// Update modifies an existing object
func (a *Accessor[T]) Update(ctx context.Context, obj T) (Result, error) {
	return a.post(ctx, EndpointUpdate, obj)
}

// Delete is not offered by the object API and always fails with ErrUnsupported
func (a *Accessor[T]) Delete(_ context.Context, id, endpoint string) error {
	return autherrors.Wrapf(ErrUnsupported, "deleting %s %q via %q", a.objectType, id, endpoint)
}

func (a *Accessor[T]) post(ctx context.Context, name string, obj T) (Result, error) {
	endpoint := a.Endpoint(name)
	data, err := a.transport.PostObj(ctx, endpoint, obj)
	if err != nil {
		return nil, autherrors.Wrapf(err, "%s %s", name, a.objectType)
	}

	result := Result{}
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return result, nil
}

// decodeList accepts a JSON array, or a single object which is returned as a one-element list
func decodeList[T any](data []byte, endpoint string) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] != '[' {
		var one T
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("decoding %s response: %w", endpoint, err)
		}
		return []T{one}, nil
	}

	list := []T{}
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return list, nil
}
