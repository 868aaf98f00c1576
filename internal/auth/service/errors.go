package service

import "errors"

// Every failure of the adapter resolves to one of these. Callers map them to
// a fixed status and body; none of them is ever returned to an end user raw.
var (
	// ErrMissingCode means the callback query did not start with "code=".
	ErrMissingCode = errors.New("missing authorization code")

	// ErrInvalidCodeFormat means the code contains a disallowed character.
	ErrInvalidCodeFormat = errors.New("invalid authorization code format")

	// ErrExchangeRejected means the token endpoint did not return a usable token.
	ErrExchangeRejected = errors.New("authorization code exchange rejected")

	// ErrIntrospectionFailure means the user-info call failed or returned no email.
	ErrIntrospectionFailure = errors.New("bearer token introspection failed")
)
