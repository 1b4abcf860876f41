// Package identity wraps the external identity provider.
// The provider owns the user store, credential verification, and token
// signing; this package only shuttles requests to it and maps its
// responses onto domain errors.
package identity

import (
	"context"
	"errors"
)

// Sentinel errors for identity operations.
var (
	// ErrUserNotFound indicates no account exists for the given email.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists indicates an account already exists for the given email.
	ErrEmailExists = errors.New("email already registered")
	// ErrInvalidToken indicates the session token failed verification.
	ErrInvalidToken = errors.New("invalid or expired session token")
	// ErrUpstream indicates the provider call itself failed (network error,
	// unexpected status, malformed response).
	ErrUpstream = errors.New("identity provider request failed")
)

// UserRecord is the provider's view of an account.
type UserRecord struct {
	UID   string
	Email string
}

// Provider is the contract with the external identity provider.
// All operations are synchronous network round trips; implementations must
// honor context cancellation and return the sentinel errors above.
type Provider interface {
	// LookupUserByEmail finds an account by email.
	// Returns ErrUserNotFound if no account exists.
	LookupUserByEmail(ctx context.Context, email string) (*UserRecord, error)

	// CreateUser registers a new account with the given credentials.
	// Returns ErrEmailExists if the email is already taken.
	CreateUser(ctx context.Context, email, password string) (*UserRecord, error)

	// MintCustomToken asks the provider to mint a short-lived custom token
	// for uid, authenticated with the service-account credential.
	MintCustomToken(ctx context.Context, uid string) (string, error)

	// ExchangeCustomToken exchanges a custom token for a session (ID) token.
	ExchangeCustomToken(ctx context.Context, customToken string) (string, error)

	// VerifyIDToken verifies a session token and returns the account uid.
	// Returns ErrInvalidToken if the token is rejected.
	VerifyIDToken(ctx context.Context, idToken string) (*UserRecord, error)
}
