package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidegram/backend/internal/realtime"
)

func TestGetPresenceSnapshot(t *testing.T) {
	registry := realtime.NewPresenceRegistry()
	registry.Register(1, "h1")
	registry.Register(3, "h3")
	h := NewPresenceHandler(registry)

	c, rec := newChatContext(t, http.MethodGet, "/presence", 1)
	require.NoError(t, h.GetPresence(c))

	var body struct {
		Data struct {
			Online map[uint]bool `json:"online"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[uint]bool{1: true, 3: true}, body.Data.Online)
}

func TestGetPresenceRequiresAuth(t *testing.T) {
	h := NewPresenceHandler(realtime.NewPresenceRegistry())

	c, _ := newChatContext(t, http.MethodGet, "/presence", 0)
	err := h.GetPresence(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}
