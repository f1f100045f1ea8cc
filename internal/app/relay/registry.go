package relay

import (
	"sync"

	"zerochat/internal/app/identity"
)

// SessionRegistry is the authoritative live-presence map. It maintains the
// bidirectional association between connections and identities so that both
// directions are constant-time lookups. At most one identity per connection
// and at most one live connection per identity; a new login for an
// already-connected identity replaces the previous entry (last login wins).
type SessionRegistry struct {
	// mu protects both maps; they are always updated together.
	mu sync.RWMutex

	// byConn maps a live connection to the identity that owns it.
	byConn map[Conn]identity.Identity

	// byIdentity maps an identity ID to its live connection.
	byIdentity map[int64]Conn
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byConn:     make(map[Conn]identity.Identity),
		byIdentity: make(map[int64]Conn),
	}
}

// Register associates the connection with the identity. If the identity
// already owns a different live connection, that entry is atomically replaced
// and the displaced connection is returned so the caller can decide its fate.
// Re-registering the same pair is idempotent and displaces nothing.
func (r *SessionRegistry) Register(conn Conn, ident identity.Identity) (displaced Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byIdentity[ident.ID]; ok && prev != conn {
		delete(r.byConn, prev)
		displaced = prev
	}

	// A connection that re-authenticates as a different identity sheds its
	// old mapping first.
	if old, ok := r.byConn[conn]; ok && old.ID != ident.ID {
		delete(r.byIdentity, old.ID)
	}

	r.byConn[conn] = ident
	r.byIdentity[ident.ID] = conn

	return displaced
}

// Unregister removes the mapping for the given connection, if present. It is
// idempotent, and a stale connection that was already displaced by a newer
// login never removes the newer entry.
func (r *SessionRegistry) Unregister(conn Conn) (identity.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ident, ok := r.byConn[conn]
	if !ok {
		return identity.Identity{}, false
	}

	delete(r.byConn, conn)

	if current, live := r.byIdentity[ident.ID]; live && current == conn {
		delete(r.byIdentity, ident.ID)
	}

	return ident, true
}

// UnregisterIdentity removes the identity's live session regardless of which
// connection owns it, returning that connection when one existed. Used when
// an account is deleted while signed in.
func (r *SessionRegistry) UnregisterIdentity(identityID int64) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byIdentity[identityID]
	if !ok {
		return nil, false
	}

	delete(r.byIdentity, identityID)
	delete(r.byConn, conn)

	return conn, true
}

// ConnectionFor returns the live connection for the identity ID.
func (r *SessionRegistry) ConnectionFor(identityID int64) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byIdentity[identityID]
	return conn, ok
}

// IdentityFor returns the identity that owns the connection.
func (r *SessionRegistry) IdentityFor(conn Conn) (identity.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ident, ok := r.byConn[conn]
	return ident, ok
}

// Online reports the number of live sessions.
func (r *SessionRegistry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byIdentity)
}
