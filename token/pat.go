package token

import (
	"fmt"
	"os"
	"strings"
	"time"

	autherrors "github.com/mediumroast/mediumroast-go/internal/errors"
)

// AcquireViaPersonalAccessToken reads a single-line token from filePath.
// The credential never expires; rotating it is up to whoever owns the file.
func (p *Provider) AcquireViaPersonalAccessToken(filePath string) (cred Credential, err error) {
	started := time.Now()
	defer func() { p.metrics.observeAcquisition(AuthTypePAT, started, err) }()

	if err := (RefreshParams{PATFilePath: filePath}).validateFor(AuthTypePAT); err != nil {
		return Credential{}, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return Credential{}, autherrors.Mark(ErrFile, err, "reading PAT file %s", filePath)
	}

	pat := strings.TrimSpace(string(data))
	if pat == "" {
		return Credential{}, fmt.Errorf("%w: PAT file %s is empty", ErrFile, filePath)
	}

	p.logger.Debug().Str("auth_type", string(AuthTypePAT)).Str("file", filePath).Msg("loaded personal access token")
	return NewCredential(pat, time.Time{}, AuthTypePAT), nil
}
