package controllers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/sheikhshariarnehal/nesttask-edge/api/responses"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/clients"
	"github.com/sheikhshariarnehal/nesttask-edge/internal/feed"
	"github.com/sheikhshariarnehal/nesttask-edge/pkg/logger"
)

const (
	streamReadBuffer  = 1024
	streamWriteBuffer = 1024
)

// Stream upgrades the request to a websocket, registers the client window
// and pins a feed session for the caller while the connection lives.
//
// Origin is not checked here: the route sits behind bearer auth and the
// token travels in the query string, which a cross-origin page cannot read.
func Stream(sessions *feed.Sessions, registry *clients.Registry, logg *logger.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  streamReadBuffer,
		WriteBufferSize: streamWriteBuffer,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		url := strings.TrimSpace(r.URL.Query().Get("url"))
		if url == "" {
			url = "/"
		}

		session, err := sessions.Acquire(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer sessions.Release(userID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote its own response.
			logg.Warn(logg.WithUserID(r.Context(), userID.String()), "websocket upgrade failed")
			return
		}

		client := registry.Register(userID, url)
		ctx := logg.WithClientID(r.Context(), client.ID)
		logg.Info(ctx, "client stream connected")

		clients.NewSession(registry, client, conn, logg).Run(ctx)

		ctx = logg.WithFields(ctx, map[string]any{"unread": session.Model.Unread()})
		logg.Info(ctx, "client stream closed")
	}
}
