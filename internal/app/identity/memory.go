package identity

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MemoryDirectory is a process-local Directory used in development mode and in
// tests. Accounts do not survive a restart.
type MemoryDirectory struct {
	mu     sync.RWMutex
	nextID int64
	byName map[string]*memoryAccount
}

type memoryAccount struct {
	identity Identity
	hash     []byte
}

// NewMemoryDirectory returns an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		nextID: 1,
		byName: make(map[string]*memoryAccount),
	}
}

// Authenticate validates the username/secret pair.
func (d *MemoryDirectory) Authenticate(ctx context.Context, username, secret string) (Identity, error) {
	d.mu.RLock()
	account, ok := d.byName[username]
	d.mu.RUnlock()

	if !ok {
		return Identity{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(account.hash, []byte(secret)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	return account.identity, nil
}

// Lookup resolves a username to its identity.
func (d *MemoryDirectory) Lookup(ctx context.Context, username string) (Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	account, ok := d.byName[username]
	if !ok {
		return Identity{}, ErrNotFound
	}

	return account.identity, nil
}

// Register creates a new account.
func (d *MemoryDirectory) Register(ctx context.Context, username, secret, email string) (Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byName[username]; exists {
		return Identity{}, ErrUsernameTaken
	}

	ident := Identity{ID: d.nextID, Username: username}
	d.nextID++

	d.byName[username] = &memoryAccount{identity: ident, hash: hash}

	return ident, nil
}

// Unregister deletes an account after re-validating its credentials.
func (d *MemoryDirectory) Unregister(ctx context.Context, username, secret string) (Identity, error) {
	ident, err := d.Authenticate(ctx, username, secret)
	if err != nil {
		return Identity{}, err
	}

	d.mu.Lock()
	delete(d.byName, username)
	d.mu.Unlock()

	return ident, nil
}
