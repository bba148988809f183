package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tidegram/backend/internal/identity"
	"github.com/tidegram/backend/internal/realtime"
	"github.com/tidegram/backend/pkg/logger"
)

// closeUnauthorized is the application close code sent when the handshake
// credential is missing or invalid (4000-4999 is the application range).
const closeUnauthorized = 4401

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser clients connect from the web origin; token auth is the actual
	// gate, same as the CORS-open REST surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler performs the websocket handshake: extract the credential, resolve
// it to an identity, and hand the connection to the hub. Fail-closed: a
// connection that cannot be authenticated is closed with an unauthorized
// close code and never attached.
type WSHandler struct {
	hub      *realtime.Hub
	verifier identity.Verifier
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *realtime.Hub, verifier identity.Verifier) *WSHandler {
	return &WSHandler{hub: hub, verifier: verifier}
}

// RegisterWSRoutes registers the connection-establishment route
func (h *WSHandler) RegisterWSRoutes(e *echo.Echo) {
	e.GET("/ws", h.Handle)
}

// Handle upgrades the connection and runs the authentication step. Browsers
// cannot set headers on native WebSocket, so the token usually arrives as a
// query parameter; the Authorization header works for non-browser clients.
func (h *WSHandler) Handle(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		authHeader := c.Request().Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			token = parts[1]
		}
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return nil
	}

	userID, err := h.verifier.Verify(c.Request().Context(), token)
	if err != nil {
		logger.Log.Warn("websocket handshake rejected", zap.Error(err))
		msg := websocket.FormatCloseMessage(closeUnauthorized, "unauthorized")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(5*time.Second))
		_ = conn.Close()
		return nil
	}

	h.hub.Attach(userID, conn)
	return nil
}
