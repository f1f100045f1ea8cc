package relay

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerochat/internal/app/identity"
)

// fakeConn is a scriptable Conn for registry, queue, and router tests.
type fakeConn struct {
	mu        sync.Mutex
	frames    [][]byte
	failSends bool
	kicked    []string
}

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failSends {
		return assert.AnError
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *fakeConn) Kick(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.kicked = append(c.kicked, reason)
}

func (c *fakeConn) sentFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([][]byte(nil), c.frames...)
}

func (c *fakeConn) kickCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.kicked)
}

func ident(id int64, name string) identity.Identity {
	return identity.Identity{ID: id, Username: name}
}

func TestRegistryUnknownIdentityNotFound(t *testing.T) {
	r := NewSessionRegistry()

	_, ok := r.ConnectionFor(42)
	assert.False(t, ok)

	_, ok = r.IdentityFor(&fakeConn{})
	assert.False(t, ok)
}

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	r := NewSessionRegistry()
	c := &fakeConn{}
	alice := ident(1, "alice")

	require.Nil(t, r.Register(c, alice))
	require.Nil(t, r.Register(c, alice))

	assert.Equal(t, 1, r.Online())

	conn, ok := r.ConnectionFor(alice.ID)
	require.True(t, ok)
	assert.Same(t, c, conn.(*fakeConn))
}

func TestRegistryLastLoginWins(t *testing.T) {
	r := NewSessionRegistry()
	c1 := &fakeConn{}
	c2 := &fakeConn{}
	alice := ident(1, "alice")

	require.Nil(t, r.Register(c1, alice))

	displaced := r.Register(c2, alice)
	require.NotNil(t, displaced)
	assert.Same(t, c1, displaced.(*fakeConn))

	conn, ok := r.ConnectionFor(alice.ID)
	require.True(t, ok)
	assert.Same(t, c2, conn.(*fakeConn))

	// The displaced connection no longer resolves to the identity.
	_, ok = r.IdentityFor(c1)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Online())
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	r := NewSessionRegistry()
	c := &fakeConn{}
	alice := ident(1, "alice")

	r.Register(c, alice)

	got, ok := r.Unregister(c)
	require.True(t, ok)
	assert.Equal(t, alice, got)

	_, ok = r.Unregister(c)
	assert.False(t, ok)

	_, ok = r.ConnectionFor(alice.ID)
	assert.False(t, ok)
}

func TestRegistryStaleUnregisterKeepsNewerSession(t *testing.T) {
	r := NewSessionRegistry()
	c1 := &fakeConn{}
	c2 := &fakeConn{}
	alice := ident(1, "alice")

	r.Register(c1, alice)
	r.Register(c2, alice)

	// The displaced connection's teardown arrives after the replacement.
	r.Unregister(c1)

	conn, ok := r.ConnectionFor(alice.ID)
	require.True(t, ok)
	assert.Same(t, c2, conn.(*fakeConn))
}

func TestRegistryConnSwitchingIdentity(t *testing.T) {
	r := NewSessionRegistry()
	c := &fakeConn{}
	alice := ident(1, "alice")
	bob := ident(2, "bob")

	r.Register(c, alice)
	r.Register(c, bob)

	_, ok := r.ConnectionFor(alice.ID)
	assert.False(t, ok)

	got, ok := r.IdentityFor(c)
	require.True(t, ok)
	assert.Equal(t, bob, got)
	assert.Equal(t, 1, r.Online())
}

func TestRegistryUnregisterIdentity(t *testing.T) {
	r := NewSessionRegistry()
	c := &fakeConn{}
	alice := ident(1, "alice")

	r.Register(c, alice)

	conn, ok := r.UnregisterIdentity(alice.ID)
	require.True(t, ok)
	assert.Same(t, c, conn.(*fakeConn))

	_, ok = r.UnregisterIdentity(alice.ID)
	assert.False(t, ok)

	_, ok = r.IdentityFor(c)
	assert.False(t, ok)
}
