package rest_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	autherrors "github.com/mediumroast/mediumroast-go/internal/errors"
	"github.com/mediumroast/mediumroast-go/objects"
	"github.com/mediumroast/mediumroast-go/rest"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type recorded struct {
	method      string
	path        string
	body        string
	auth        string
	contentType string
	requestID   string
	userAgent   string
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var requests []recorded

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recorded{
			method:      r.Method,
			path:        r.URL.Path,
			body:        string(body),
			auth:        r.Header.Get("Authorization"),
			contentType: r.Header.Get("Content-Type"),
			requestID:   r.Header.Get(rest.RequestIDHeader),
			userAgent:   r.Header.Get("User-Agent"),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(server.Close)

	return server, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), requests...)
	}
}

func TestClient_GetObj(t *testing.T) {
	server, requests := newServer(t, http.StatusOK, `[{"name":"Acme"}]`)
	client := rest.NewClient(server.URL + "/")

	t.Run("without body", func(t *testing.T) {
		data, err := client.GetObj(context.Background(), "/v1/companies/getall", nil)
		require.NoError(t, err)
		require.JSONEq(t, `[{"name":"Acme"}]`, string(data))

		got := requests()[0]
		require.Equal(t, http.MethodGet, got.method)
		require.Equal(t, "/v1/companies/getall", got.path)
		require.Empty(t, got.body)
		require.Empty(t, got.contentType)
		require.Equal(t, rest.DefaultUserAgent, got.userAgent)
		_, err = uuid.Parse(got.requestID)
		require.NoError(t, err)
	})

	t.Run("with filter", func(t *testing.T) {
		_, err := client.GetObj(context.Background(), "/v1/companies/getbyx", objects.Query{GetByX: "name", XEquals: "Acme"})
		require.NoError(t, err)

		got := requests()[1]
		require.Equal(t, http.MethodPost, got.method)
		require.Equal(t, "application/json", got.contentType)
		require.JSONEq(t, `{"getByX":"name","xEquals":"Acme"}`, got.body)
	})
}

func TestClient_PostObj(t *testing.T) {
	server, requests := newServer(t, http.StatusOK, `{"status":"ok"}`)
	client := rest.NewClient(server.URL, rest.WithUserAgent("cli/1.0"))

	_, err := client.PostObj(context.Background(), "/v1/users/register", objects.Object{"name": "Ada"})
	require.NoError(t, err)

	got := requests()[0]
	require.Equal(t, http.MethodPost, got.method)
	require.JSONEq(t, `{"name":"Ada"}`, got.body)
	require.Equal(t, "cli/1.0", got.userAgent)
}

// TestClient_TokenSource tests that each request carries the source's bearer token
func TestClient_TokenSource(t *testing.T) {
	server, requests := newServer(t, http.StatusOK, `[]`)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "ghs_abc", TokenType: "Bearer"})
	client := rest.NewClient(server.URL, rest.WithTokenSource(src))

	_, err := client.GetObj(context.Background(), "/v1/users/getall", nil)
	require.NoError(t, err)
	require.Equal(t, "Bearer ghs_abc", requests()[0].auth)
}

func TestClient_Errors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		server, _ := newServer(t, http.StatusNotFound, `{"error":"no such type"}`)
		client := rest.NewClient(server.URL)

		_, err := client.PostObj(context.Background(), "/v1/widgets/register", objects.Object{})
		require.ErrorIs(t, err, autherrors.ErrTransport)

		var transportErr *autherrors.TransportError
		require.ErrorAs(t, err, &transportErr)
		require.Equal(t, http.StatusNotFound, transportErr.StatusCode)
		require.Equal(t, "/v1/widgets/register", transportErr.Endpoint)
		require.Contains(t, transportErr.Body, "no such type")
	})

	t.Run("unreachable", func(t *testing.T) {
		server, _ := newServer(t, http.StatusOK, `[]`)
		server.Close()
		client := rest.NewClient(server.URL)

		_, err := client.GetObj(context.Background(), "/v1/users/getall", nil)
		require.ErrorIs(t, err, autherrors.ErrTransport)
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		t.Cleanup(server.Close)
		client := rest.NewClient(server.URL, rest.WithTimeout(20*time.Millisecond))

		_, err := client.GetObj(context.Background(), "/v1/users/getall", nil)
		require.ErrorIs(t, err, autherrors.ErrTransport)
	})
}
