package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/ndeks/nextlevel-backend/internal/api/middleware"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"github.com/ndeks/nextlevel-backend/internal/notify"
)

// SocketAuthenticator checks the access token of a websocket upgrade.
type SocketAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

type WebSocketHandler struct {
	hub      *notify.Hub
	auth     SocketAuthenticator
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWebSocketHandler(hub *notify.Hub, auth SocketAuthenticator, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Handle upgrades an authenticated request into a notification client. The
// token comes from the token query parameter or the Authorization header.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = middleware.BearerToken(r)
	}

	principal, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "user_id", principal.ID, "error", err)
		return
	}

	client := notify.NewClient(h.hub, conn, principal.ID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
