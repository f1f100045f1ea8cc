package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDirectoryLifecycle(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDirectory()

	created, err := d.Register(ctx, "alice", "pw123456", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.Positive(t, created.ID)

	// Duplicate usernames are refused.
	_, err = d.Register(ctx, "alice", "other", "alice2@example.com")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// Lookup resolves the same stable identity.
	found, err := d.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created, found)

	_, err = d.Lookup(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	// Authentication checks the secret.
	authed, err := d.Authenticate(ctx, "alice", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, created, authed)

	_, err = d.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = d.Authenticate(ctx, "nobody", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMemoryDirectoryUnregister(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDirectory()

	created, err := d.Register(ctx, "bob", "pw123456", "bob@example.com")
	require.NoError(t, err)

	// Wrong credentials never delete the account.
	_, err = d.Unregister(ctx, "bob", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = d.Lookup(ctx, "bob")
	assert.NoError(t, err)

	deleted, err := d.Unregister(ctx, "bob", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, created, deleted)

	_, err = d.Lookup(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	// Identity IDs are never reused after deletion.
	recreated, err := d.Register(ctx, "bob", "pw123456", "bob@example.com")
	require.NoError(t, err)
	assert.Greater(t, recreated.ID, created.ID)
}
