package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mediumroast/mediumroast-go/token"
	"github.com/stretchr/testify/require"
)

// setupPAT writes a PAT-based config pointing at an object API stub
func setupPAT(t *testing.T, apiURL string) string {
	t.Helper()
	dir := t.TempDir()
	patPath := filepath.Join(dir, "pat")
	require.NoError(t, os.WriteFile(patPath, []byte("ghp_test\n"), 0o600))

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(`
auth:
  type: pat
  pat_file: %s
server:
  base_url: %s
logging:
  level: error
`, patPath, apiURL)), 0o600))
	return configPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-banner"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestLoginAndList(t *testing.T) {
	var gotAuth, gotPath string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[{"name":"Acme"}]`))
	}))
	defer api.Close()
	configPath := setupPAT(t, api.URL)

	out, err := execute(t, "--config", configPath, "login")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in")
	require.Contains(t, out, "authType: pat")
	require.NotContains(t, out, "ghp_test")

	out, err = execute(t, "--config", configPath, "list", "companies")
	require.NoError(t, err)
	require.JSONEq(t, `[{"name":"Acme"}]`, out)
	require.Equal(t, "Bearer ghp_test", gotAuth)
	require.Equal(t, "/v1/companies/getall", gotPath)
}

func TestGet(t *testing.T) {
	var gotBody bytes.Buffer
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = gotBody.ReadFrom(r.Body)
		_, _ = w.Write([]byte(`{"id":"42","name":"Ada"}`))
	}))
	defer api.Close()
	configPath := setupPAT(t, api.URL)

	out, err := execute(t, "--config", configPath, "get", "users", "--id", "42")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"42","name":"Ada"}]`, out)
	require.JSONEq(t, `{"getByX":"id","xEquals":"42"}`, gotBody.String())

	_, err = execute(t, "--config", configPath, "get", "widgets", "--id", "1")
	require.ErrorContains(t, err, "unknown object type")
}

func TestExitCodeFor(t *testing.T) {
	require.Equal(t, ExitCodeConfig, exitCodeFor(fmt.Errorf("x: %w", token.ErrConfig)))
	require.Equal(t, ExitCodeAuthFailed, exitCodeFor(&token.AuthError{Code: "access_denied"}))
	require.Equal(t, ExitCodeAuthFailed, exitCodeFor(token.ErrFile))
	require.Equal(t, ExitCodeAuthFailed, exitCodeFor(fmt.Errorf("polling for device token: %w", &token.AuthError{Code: token.ErrCodeExpiredToken})))
	require.Equal(t, ExitCodeError, exitCodeFor(errors.New("boom")))
}
