/*
Package relay contains the session and routing engine of the ZeroChat server.

It owns the mapping between authenticated identities and live connections, the
per-message decision between immediate delivery and offline buffering, and the
backlog drain that runs when an identity reconnects. The transport itself is
owned by the connection gateway; the relay only sees the Conn abstraction.
*/
package relay

// Conn is the relay's view of a live bidirectional channel. A Conn has no
// intrinsic identity; it becomes meaningful once the registry associates it
// with an identity.
type Conn interface {
	// Send queues the payload for transmission. It must not block; a full or
	// closed outbound queue is reported as an error so the caller can fall
	// back to offline buffering.
	Send(payload []byte) error

	// Kick asks the transport to close the channel because the session was
	// displaced by a newer login. The transport owns the actual close.
	Kick(reason string)
}
