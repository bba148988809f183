package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tidegram/backend/internal/realtime"
)

// PresenceHandler exposes the administrative presence snapshot.
type PresenceHandler struct {
	presence *realtime.PresenceRegistry
}

// NewPresenceHandler creates a new PresenceHandler
func NewPresenceHandler(presence *realtime.PresenceRegistry) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// RegisterPresenceRoutes registers presence routes
func (h *PresenceHandler) RegisterPresenceRoutes(g *echo.Group) {
	g.GET("/presence", h.GetPresence)
}

// GetPresence returns a point-in-time map of online users. The snapshot is
// stale the moment it is taken; clients must not treat it as a subscription.
func (h *PresenceHandler) GetPresence(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"online": h.presence.Snapshot(),
		},
	})
}
