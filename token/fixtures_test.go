package token_test

import (
	"bytes"
	"context"
	"crypto"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mediumroast/mediumroast-go/token"
	"github.com/mediumroast/mediumroast-go/token/keys"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2023, 11, 14, 22, 0, 0, 0, time.UTC)

// testHarness collects what the provider did outside of its return values
type testHarness struct {
	mu     sync.Mutex
	sleeps []time.Duration
	opened []string
	out    bytes.Buffer
}

func (h *testHarness) sleep(ctx context.Context, d time.Duration) error {
	h.mu.Lock()
	h.sleeps = append(h.sleeps, d)
	h.mu.Unlock()
	return ctx.Err()
}

func (h *testHarness) open(u string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opened = append(h.opened, u)
	return nil
}

func (h *testHarness) Sleeps() []time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]time.Duration(nil), h.sleeps...)
}

func newTestProvider(t *testing.T, options ...token.ProviderOption) (*token.Provider, *testHarness) {
	t.Helper()
	h := &testHarness{}
	base := []token.ProviderOption{
		token.WithNowFunc(func() time.Time { return testNow }),
		token.WithSleepFunc(h.sleep),
		token.WithBrowserOpener(h.open),
		token.WithOutput(&h.out),
	}
	return token.NewProvider(append(base, options...)...), h
}

// noNetworkClient fails the test if any request is attempted
func noNetworkClient(t *testing.T) *http.Client {
	t.Helper()
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		return nil, fmt.Errorf("network disabled")
	})}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// writePEM writes a fresh RSA key and returns its path and public half
func writePEM(t *testing.T) (string, crypto.PublicKey) {
	t.Helper()
	kp, err := keys.GenerateRSAKeyPair("", 2048)
	require.NoError(t, err)
	pemData, err := kp.ExportPrivateKeyPEM()
	require.NoError(t, err)
	return writeFile(t, "app.pem", pemData), kp.PublicKey
}

// deviceServer mimics the device-code and token endpoints of an authorization server
type deviceServer struct {
	*httptest.Server

	mu              sync.Mutex
	deviceCodeBody  string
	deviceCodeCode  int
	tokenBodies     []string
	errorStatus     int
	deviceCodeHits  int
	tokenHits       int
	deviceCodeForms []url.Values
	tokenForms      []url.Values
}

func newDeviceServer(t *testing.T, tokenBodies ...string) *deviceServer {
	t.Helper()
	s := &deviceServer{
		deviceCodeBody: `{"device_code":"D1","user_code":"U1","verification_uri":"https://example.test/device","interval":1,"expires_in":900}`,
		deviceCodeCode: http.StatusOK,
		tokenBodies:    tokenBodies,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+token.DeviceCodePath, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		s.mu.Lock()
		s.deviceCodeHits++
		s.deviceCodeForms = append(s.deviceCodeForms, r.PostForm)
		body, code := s.deviceCodeBody, s.deviceCodeCode
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("POST "+token.AccessTokenPath, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		s.mu.Lock()
		s.tokenHits++
		s.tokenForms = append(s.tokenForms, r.PostForm)
		body := `{"error":"authorization_pending"}`
		if len(s.tokenBodies) > 0 {
			body = s.tokenBodies[0]
			if len(s.tokenBodies) > 1 {
				s.tokenBodies = s.tokenBodies[1:]
			}
		}
		status := http.StatusOK
		if s.errorStatus != 0 && strings.Contains(body, `"error"`) {
			status = s.errorStatus
		}
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *deviceServer) hits() (deviceCode, tokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceCodeHits, s.tokenHits
}

// installationServer mimics the installation access token endpoint
type installationServer struct {
	*httptest.Server

	mu         sync.Mutex
	status     int
	body       string
	hits       int
	lastMethod string
	lastPath   string
	lastAuth   string
	lastAccept string
}

func newInstallationServer(t *testing.T, status int, body string) *installationServer {
	t.Helper()
	s := &installationServer{status: status, body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits++
		s.lastMethod = r.Method
		s.lastPath = r.URL.Path
		s.lastAuth = r.Header.Get("Authorization")
		s.lastAccept = r.Header.Get("Accept")
		status, body := s.status, s.body
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *installationServer) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}
