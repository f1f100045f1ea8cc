package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"zerochat/internal/app/identity"
	"zerochat/internal/app/protocol"
	"zerochat/internal/pkg/auth/jwt"
	"zerochat/internal/pkg/errs"
	"zerochat/internal/pkg/logx"
)

// Router dispatches decoded client requests to the session registry, the
// offline queue, and the identity directory, and acknowledges every request
// with an explicit outcome on the originating connection.
//
// Session transitions and routing decisions are serialized under dispatchMu:
// a login drains the recipient's backlog in the same critical section that
// publishes the session, so a concurrent sender can never observe the
// identity as online before the drain captured the backlog that existed at
// registration time. The registry and queue stay independently safe for
// direct use; the dispatch lock only orders their composite operations.
type Router struct {
	registry  *SessionRegistry
	queue     *OfflineQueue
	directory identity.Directory

	// jwtSecret signs the session resume tokens issued on login.
	jwtSecret string

	// dispatchMu serializes composite session/routing transitions. See the
	// type comment.
	dispatchMu sync.Mutex

	logger zerolog.Logger
}

// NewRouter wires the routing engine together. All collaborators are passed
// in explicitly; the Router holds no hidden global state.
func NewRouter(registry *SessionRegistry, queue *OfflineQueue, directory identity.Directory, jwtSecret string) *Router {
	routerLogger := logx.Logger().With().Str("component", "router").Logger()

	return &Router{
		registry:  registry,
		queue:     queue,
		directory: directory,
		jwtSecret: jwtSecret,
		logger:    routerLogger,
	}
}

// Dispatch decodes a raw inbound frame and routes it by request kind. Every
// outcome, including malformed input, is acknowledged on the originating
// connection; no failure here ever closes the connection.
func (r *Router) Dispatch(ctx context.Context, conn Conn, raw []byte) {
	req, decodeErr := protocol.Decode(raw)
	if decodeErr != nil {
		r.logger.Warn().Int("code", decodeErr.Code).Msg("Rejected undecodable request")
		r.sendAck(conn, protocol.NewRejection("", decodeErr))
		return
	}

	switch req.Kind {
	case protocol.KindLogin:
		r.handleLogin(ctx, conn, req)

	case protocol.KindRegister:
		r.handleRegister(ctx, conn, req)

	case protocol.KindText:
		r.handleText(ctx, conn, req)

	case protocol.KindUnregister:
		r.handleUnregister(ctx, conn, req)

	case protocol.KindEdit:
		// Reserved kind: recognized so clients get a clear rejection instead
		// of a malformed-input error.
		r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrUnsupportedKind)))

	default:
		r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrUnsupportedKind)))
	}
}

// handleLogin authenticates the credentials, publishes the session, and
// flushes the identity's backlog over the now-live connection.
func (r *Router) handleLogin(ctx context.Context, conn Conn, req protocol.Request) {
	if _, ok := r.registry.IdentityFor(conn); ok {
		r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrAlreadySignedIn)))
		return
	}

	ident, err := r.directory.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			r.logger.Warn().Str("username", req.Username).Msg("Login rejected: invalid credentials")
			r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrInvalidCredentials)))
			return
		}

		r.logger.Error().Err(err).Str("username", req.Username).Msg("Login failed: directory error")
		r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrUnknown)))
		return
	}

	r.establishSession(conn, ident)

	ack := protocol.NewAck(req.Kind, protocol.StatusOK)
	ack.Username = ident.Username

	token, err := jwt.GenerateToken(&jwt.Payload{ID: ident.ID, Username: ident.Username}, r.jwtSecret, jwt.SessionTokenExpiration)
	if err != nil {
		r.logger.Error().Err(err).Int64("identity_id", ident.ID).Msg("Failed to issue session token")
	} else {
		ack.Token = token
	}

	r.sendAck(conn, ack)
}

// HandleResume publishes a session for an identity that presented a valid
// resume token at connection time, flushing its backlog exactly like a
// credential login.
func (r *Router) HandleResume(conn Conn, ident identity.Identity) {
	r.establishSession(conn, ident)

	ack := protocol.NewAck(protocol.KindLogin, protocol.StatusOK)
	ack.Username = ident.Username
	r.sendAck(conn, ack)
}

// establishSession atomically registers the connection and drains the
// identity's backlog. The displaced connection of a previous login, if any,
// is kicked after the new session is visible.
func (r *Router) establishSession(conn Conn, ident identity.Identity) {
	r.dispatchMu.Lock()

	displaced := r.registry.Register(conn, ident)

	pending := r.queue.Drain(ident.ID)
	for i, msg := range pending {
		if err := conn.Send(msg.Payload); err != nil {
			// The fresh connection is already unusable. Put the rest back so
			// nothing is lost; transport teardown will unregister.
			r.logger.Warn().Err(err).
				Int64("identity_id", ident.ID).
				Int("undelivered", len(pending)-i).
				Msg("Backlog flush interrupted, restoring remainder")
			r.queue.restore(ident.ID, pending[i:])
			break
		}
	}

	r.dispatchMu.Unlock()

	if len(pending) > 0 {
		r.logger.Info().
			Int64("identity_id", ident.ID).
			Int("flushed", len(pending)).
			Msg("Backlog flushed on login.")
	}

	if displaced != nil {
		r.logger.Warn().Int64("identity_id", ident.ID).Msg("Identity already connected. Displacing old connection.")
		displaced.Kick("Session replaced by a newer login.")
	}
}

// handleRegister delegates account creation to the identity directory. No
// session is established.
func (r *Router) handleRegister(ctx context.Context, conn Conn, req protocol.Request) {
	if _, err := r.directory.Register(ctx, req.Username, req.Password, req.Email); err != nil {
		if errors.Is(err, identity.ErrUsernameTaken) {
			r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrUsernameTaken)))
			return
		}

		r.logger.Error().Err(err).Str("username", req.Username).Msg("Registration failed: directory error")
		r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrUnknown)))
		return
	}

	r.sendAck(conn, protocol.NewAck(req.Kind, protocol.StatusOK))
}

// handleUnregister deletes the account after re-validating credentials and
// tears down the identity's live session, if any.
func (r *Router) handleUnregister(ctx context.Context, conn Conn, req protocol.Request) {
	ident, err := r.directory.Unregister(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrInvalidCredentials)))
			return
		}

		r.logger.Error().Err(err).Str("username", req.Username).Msg("Unregister failed: directory error")
		r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrUnknown)))
		return
	}

	r.dispatchMu.Lock()
	displaced, hadSession := r.registry.UnregisterIdentity(ident.ID)
	discarded := len(r.queue.Drain(ident.ID))
	r.dispatchMu.Unlock()

	if hadSession && displaced != conn {
		displaced.Kick("Account was deleted.")
	}

	r.logger.Info().
		Int64("identity_id", ident.ID).
		Bool("had_session", hadSession).
		Int("discarded_backlog", discarded).
		Msg("Account unregistered.")

	r.sendAck(conn, protocol.NewAck(req.Kind, protocol.StatusOK))
}

// handleText resolves the recipient and either delivers over their live
// connection or buffers for their next session. The sender is implied by the
// connection's session; the ack reports Delivered, Queued, or Rejected.
func (r *Router) handleText(ctx context.Context, conn Conn, req protocol.Request) {
	sender, ok := r.registry.IdentityFor(conn)
	if !ok {
		r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrNotSignedIn)))
		return
	}

	recipient, err := r.directory.Lookup(ctx, req.Recipient)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrNoSuchRecipient)))
			return
		}

		r.logger.Error().Err(err).Str("recipient", req.Recipient).Msg("Recipient lookup failed: directory error")
		r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrUnknown)))
		return
	}

	delivery := protocol.NewDelivery(sender.Username, recipient.Username, req.Message)
	payload, err := delivery.Encode()
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode delivery payload")
		r.sendAck(conn, protocol.NewRejection(req.Kind, errs.NewError(errs.ErrUnknown)))
		return
	}

	r.dispatchMu.Lock()
	status, routeErr := r.route(recipient.ID, payload)
	r.dispatchMu.Unlock()

	if routeErr != nil {
		r.sendAck(conn, protocol.NewRejection(req.Kind, routeErr))
		return
	}

	ack := protocol.NewAck(req.Kind, status)
	ack.ID = delivery.ID
	r.sendAck(conn, ack)
}

// route performs the deliver-or-enqueue decision for an encoded payload.
// A failed send to a connection believed live is treated as "recipient
// currently unreachable" and falls back to the backlog rather than losing
// the payload. Must be called with the dispatch lock held.
func (r *Router) route(recipientID int64, payload []byte) (protocol.Status, *errs.CustomError) {
	if rconn, online := r.registry.ConnectionFor(recipientID); online {
		if err := rconn.Send(payload); err == nil {
			return protocol.StatusDelivered, nil
		}

		r.logger.Warn().Int64("identity_id", recipientID).Msg("Live delivery failed, falling back to backlog")
	}

	if err := r.queue.Enqueue(recipientID, payload); err != nil {
		if errors.Is(err, ErrBacklogFull) {
			return "", errs.NewError(errs.ErrBacklogFull)
		}
		return "", errs.NewError(errs.ErrUnknown)
	}

	return protocol.StatusQueued, nil
}

// HandleDisconnect is the transport-level teardown path invoked by the
// connection gateway. No offline broadcast is propagated.
func (r *Router) HandleDisconnect(conn Conn) {
	if ident, ok := r.registry.Unregister(conn); ok {
		r.logger.Info().
			Int64("identity_id", ident.ID).
			Str("username", ident.Username).
			Msg("Session ended.")
	}
}

// sendAck writes an acknowledgment on the originating connection. A failure
// here only logs: the requester's connection is broken and the transport
// teardown will clean it up.
func (r *Router) sendAck(conn Conn, ack protocol.Ack) {
	payload, err := ack.Encode()
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to encode ack")
		return
	}

	if err := conn.Send(payload); err != nil {
		r.logger.Warn().Err(err).Str("status", string(ack.Status)).Msg("Failed to queue ack for sender")
	}
}
