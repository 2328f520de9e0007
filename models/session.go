package models

import (
	"context"
	"errors"
)

// ErrNotSignedIn is returned when a token is requested without a session.
var ErrNotSignedIn = errors.New("not signed in")

// TokenFunc fetches a fresh bearer token.
type TokenFunc func(ctx context.Context) (string, error)

// Session mirrors the identity provider's state. The zero value is the
// signed-out session.
type Session struct {
	SignedIn    bool
	UserID      string
	DisplayName string

	TokenProvider TokenFunc
}

// SignedOut returns the signed-out session.
func SignedOut() Session {
	return Session{}
}

// Token fetches a fresh bearer token through the session's provider.
func (s Session) Token(ctx context.Context) (string, error) {
	if !s.SignedIn || s.TokenProvider == nil {
		return "", ErrNotSignedIn
	}
	return s.TokenProvider(ctx)
}
