package token

import (
	autherrors "github.com/mediumroast/mediumroast-go/internal/errors"
)

// Failure classes returned by the provider. Match them with errors.Is.
var (
	ErrAuth    = autherrors.ErrAuth    // authorization server rejected the request
	ErrFile    = autherrors.ErrFile    // PAT or PEM file missing or unreadable
	ErrSigning = autherrors.ErrSigning // app JWT could not be built or signed
	ErrConfig  = autherrors.ErrConfig  // unknown auth type or missing refresh parameters

	ErrTransport = autherrors.ErrTransport // request to the authorization server never completed
)

// AuthError carries the authorization server's rejection. Match it with errors.As.
type AuthError = autherrors.AuthError

// TransportError describes a request that failed before the server could answer
type TransportError = autherrors.TransportError
