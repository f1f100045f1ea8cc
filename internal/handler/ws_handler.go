/*
Package handler provides the HTTP handlers and routing setup for the ZeroChat server.

This file contains the websocket upgrade handler: it applies the per-IP
connection rate limit, honors an optional session resume token, upgrades the
connection, and runs the client pumps.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"zerochat/internal/app/identity"
	"zerochat/internal/app/relay"
	"zerochat/internal/pkg/auth/jwt"
	"zerochat/internal/pkg/errs"
	"zerochat/internal/pkg/limiter"
	"zerochat/internal/pkg/logx"
	"zerochat/internal/pkg/resp"
)

// HandleWebSocket creates the HandlerFunc that turns an HTTP request into a
// relay connection. A connection starts unauthenticated; a session is
// established either by a LOGIN request over the socket or, when a valid
// resume token was presented at upgrade time, immediately after the upgrade.
func HandleWebSocket(upgrader websocket.Upgrader, connectLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !connectLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		// Resolve the resume token before upgrading so a stale token costs
		// nothing. An unusable token is ignored, not fatal: the connection
		// proceeds unauthenticated.
		var resumed *identity.Identity
		if token := r.URL.Query().Get("token"); token != "" {
			if payload, err := jwt.ParseToken(token, deps.Config.JWTSecret); err != nil {
				logx.Warn("Ignoring unusable session resume token.", "ip", ip)
			} else if ident, err := deps.Directory.Lookup(r.Context(), payload.Username); err != nil || ident.ID != payload.ID {
				logx.Warn("Ignoring resume token for unknown account.", "username", payload.Username)
			} else {
				resumed = &ident
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := relay.NewClient(deps.Router, conn)

		go client.WritePump()

		logx.Info("WebSocket connection established", "ip", ip, "resumed", resumed != nil)

		if resumed != nil {
			deps.Router.HandleResume(client, *resumed)
		}

		client.ReadPump()
	}
}
