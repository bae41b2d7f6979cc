package token_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/mediumroast/mediumroast-go/token"
	"github.com/stretchr/testify/require"
)

// TestSource_RefreshesOnce tests that the source keeps the refreshed credential
func TestSource_RefreshesOnce(t *testing.T) {
	pemPath, _ := writePEM(t)
	server := newInstallationServer(t, http.StatusCreated, installationBody)
	provider, _ := newTestProvider(t, token.WithAPIHost(server.URL))

	seed := token.NewCredential("ghs_old", testNow.Add(-time.Minute), token.AuthTypePEM)
	src := token.NewSource(context.Background(), provider, seed,
		token.RefreshParams{PEMFilePath: pemPath, AppID: "123", InstallationID: "99"})

	for i := 0; i < 3; i++ {
		tok, err := src.Token()
		require.NoError(t, err)
		require.Equal(t, "ghs_installation", tok.AccessToken)
		require.Equal(t, "Bearer", tok.TokenType)
	}
	require.Equal(t, 1, server.Hits())
	require.Equal(t, "ghs_installation", src.Credential().Token())
}

func TestSource_Error(t *testing.T) {
	provider, _ := newTestProvider(t, token.WithHTTPClient(noNetworkClient(t)))
	seed := token.NewCredential("stale", testNow.Add(-time.Minute), token.AuthTypePAT)
	src := token.NewSource(context.Background(), provider, seed, token.RefreshParams{})

	_, err := src.Token()
	require.ErrorIs(t, err, token.ErrConfig)
	require.Equal(t, seed, src.Credential())
}
