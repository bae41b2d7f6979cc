package token

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// Source adapts a Provider to oauth2.TokenSource. It keeps the latest Credential and
// its refresh parameters so HTTP clients can refresh transparently.
type Source struct {
	mu       sync.Mutex
	ctx      context.Context
	provider *Provider
	params   RefreshParams
	current  Credential
}

var _ oauth2.TokenSource = (*Source)(nil)

// NewSource creates a Source seeded with cred. ctx bounds every refresh it performs.
func NewSource(ctx context.Context, provider *Provider, cred Credential, params RefreshParams) *Source {
	return &Source{
		ctx:      ctx,
		provider: provider,
		params:   params,
		current:  cred,
	}
}

// Token returns a valid token, refreshing the held credential if it has expired
func (s *Source) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, err := s.provider.CheckAndRefresh(s.ctx, s.current, s.params)
	if err != nil {
		return nil, err
	}
	s.current = cred
	return cred.OAuth2Token(), nil
}

// Credential returns the credential currently held
func (s *Source) Credential() Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
