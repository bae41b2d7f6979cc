package token

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	json "github.com/goccy/go-json"
	autherrors "github.com/mediumroast/mediumroast-go/internal/errors"
	"github.com/mediumroast/mediumroast-go/token/keys"
)

// AcquireViaInstallationPEM exchanges an app JWT, signed with the key in pemFilePath, for an
// installation access token. The expiry comes from the server's response.
//
// The three failure points stay distinguishable: ErrFile when the key cannot be read,
// ErrSigning when the JWT cannot be built, ErrAuth when the server refuses the exchange.
func (p *Provider) AcquireViaInstallationPEM(ctx context.Context, pemFilePath, appID, installationID string) (cred Credential, err error) {
	started := time.Now()
	defer func() { p.metrics.observeAcquisition(AuthTypePEM, started, err) }()

	params := RefreshParams{PEMFilePath: pemFilePath, AppID: appID, InstallationID: installationID}
	if err := params.validateFor(AuthTypePEM); err != nil {
		return Credential{}, err
	}

	pemData, err := os.ReadFile(pemFilePath)
	if err != nil {
		return Credential{}, autherrors.Mark(ErrFile, err, "reading PEM file %s", pemFilePath)
	}

	appJWT, err := p.signAppJWT(pemData, appID)
	if err != nil {
		return Credential{}, err
	}

	endpoint := p.apiHost + fmt.Sprintf(installationTokenPath, url.PathEscape(installationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to create installation token request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+appJWT)
	req.Header.Set("Accept", p.accept)

	status, body, err := p.do(req)
	if err != nil {
		return Credential{}, err
	}
	if !isSuccess(status) {
		return Credential{}, fmt.Errorf("requesting installation token: %w", authErrorFromBody(status, body))
	}

	var resp installationTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Credential{}, fmt.Errorf("requesting installation token: %w", &AuthError{
			StatusCode:  status,
			Description: "unparseable installation token response",
			Payload:     string(body),
		})
	}
	if resp.Token == "" || resp.ExpiresAt.IsZero() {
		return Credential{}, fmt.Errorf("requesting installation token: %w", &AuthError{
			StatusCode:  status,
			Description: "response missing token or expires_at",
			Payload:     string(body),
		})
	}

	p.logger.Info().
		Str("auth_type", string(AuthTypePEM)).
		Str("installation_id", installationID).
		Time("expires_at", resp.ExpiresAt).
		Msg("installation token issued")
	return NewCredential(resp.Token, resp.ExpiresAt, AuthTypePEM), nil
}

// signAppJWT parses the private key and signs the app assertion
func (p *Provider) signAppJWT(pemData []byte, appID string) (string, error) {
	keyPair, err := keys.LoadKeyPairFromPEM("", pemData)
	if err != nil {
		return "", autherrors.Mark(ErrSigning, err, "loading app private key")
	}

	appJWT, err := p.jwtCreator.CreateAppToken(appID, keys.NewKeyPairSigner(keyPair))
	if err != nil {
		return "", autherrors.Mark(ErrSigning, err, "signing app JWT for %s", appID)
	}
	return appJWT, nil
}
