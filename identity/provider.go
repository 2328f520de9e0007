// Package identity mirrors an external identity provider into the single
// process-wide models.Session and supplies sign-in, sign-out and fresh
// bearer tokens.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrSignInCancelled is returned by a provider when the user dismisses
	// the sign-in flow.
	ErrSignInCancelled = errors.New("sign-in cancelled")
	// ErrSessionLost is returned when a token is requested for a user the
	// provider no longer considers signed in.
	ErrSessionLost = errors.New("session no longer active")
)

// User is the provider's view of the signed-in account.
type User struct {
	UID         string
	DisplayName string
}

// Provider is the external identity service.
type Provider interface {
	// OnAuthStateChanged registers fn, calls it immediately with the
	// current user (nil when signed out) and then on every change. The
	// returned function removes the registration.
	OnAuthStateChanged(fn func(*User)) (unsubscribe func())
	// SignInWithPopup runs the interactive sign-in flow. Its result is
	// also delivered through OnAuthStateChanged.
	SignInWithPopup(ctx context.Context) (*User, error)
	// SignOut ends the provider-side session.
	SignOut(ctx context.Context) error
	// IDToken mints a fresh short-lived bearer token for u.
	IDToken(ctx context.Context, u *User) (string, error)
}
