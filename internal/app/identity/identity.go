/*
Package identity contains the identity directory: the component that owns
account records and answers authentication and username lookups.

The rest of the system references identities only by their stable numeric ID;
the directory is the single place where usernames, secrets, and profile data
live. Two implementations are provided: a Postgres-backed directory for
production and an in-memory directory for development and tests.
*/
package identity

import (
	"context"
	"errors"
)

// Identity represents an authenticated account. The ID is stable for the
// account's lifetime; the username is unique across the directory.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Sentinel errors returned by Directory implementations. The router maps
// these onto client-facing rejection reasons.
var (
	// ErrInvalidCredentials is returned when authentication fails, for a
	// missing account as well as a wrong secret.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")

	// ErrNotFound is returned by Lookup for an unknown username.
	ErrNotFound = errors.New("identity: no such user")

	// ErrUsernameTaken is returned by Register for a duplicate username.
	ErrUsernameTaken = errors.New("identity: username already taken")
)

// Directory authenticates credentials and resolves usernames to identities.
type Directory interface {
	// Authenticate validates the username/secret pair and returns the
	// matching identity, or ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, secret string) (Identity, error)

	// Lookup resolves a username to an identity, or returns ErrNotFound.
	Lookup(ctx context.Context, username string) (Identity, error)

	// Register creates a new account, or returns ErrUsernameTaken.
	Register(ctx context.Context, username, secret, email string) (Identity, error)

	// Unregister deletes an account after re-validating its credentials.
	// Returns ErrInvalidCredentials when the pair does not match an account.
	Unregister(ctx context.Context, username, secret string) (Identity, error)
}
