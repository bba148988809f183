package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tidegram/backend/internal/models"
	"github.com/tidegram/backend/internal/repositories"
)

// ChatHandler handles the request/response side of chat: history fetch,
// conversation summaries and read marks. The send path lives on the
// persistent channel.
type ChatHandler struct {
	messageRepository repositories.MessageRepository
	userRepository    repositories.UserRepository
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(messageRepo repositories.MessageRepository, userRepo repositories.UserRepository) *ChatHandler {
	return &ChatHandler{
		messageRepository: messageRepo,
		userRepository:    userRepo,
	}
}

// RegisterChatRoutes registers chat routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.GET("/chat/conversation", h.GetConversation)
	g.GET("/chat/conversations", h.GetConversations)
	g.PUT("/chat/conversations/:user_id/read", h.MarkConversationRead)
	g.PUT("/chat/messages/:id/read", h.MarkMessageRead)
}

// GetConversation returns the most recent messages between the current user
// and another user, ascending by timestamp.
func (h *ChatHandler) GetConversation(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	otherID, err := strconv.ParseUint(c.QueryParam("user_id"), 10, 32)
	if err != nil || otherID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user_id")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	messages, err := h.messageRepository.GetConversation(c.Request().Context(), currentUserID, uint(otherID), int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"messages": messages,
		},
	})
}

// GetConversations returns the recency-ordered conversation list with the
// other party's display data filled in.
func (h *ChatHandler) GetConversations(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	summaries, err := h.messageRepository.GetConversationsFor(c.Request().Context(), currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	userCache := make(map[uint]models.UserCompact)
	for i := range summaries {
		otherID := summaries[i].OtherUserID
		if compact, ok := userCache[otherID]; ok {
			summaries[i].OtherUser = compact
		} else if user, err := h.userRepository.GetUserByID(otherID); err == nil {
			compact := user.ToCompact()
			userCache[otherID] = compact
			summaries[i].OtherUser = compact
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"conversations": summaries,
		},
	})
}

// MarkConversationRead marks every unread message from the given user to the
// current user as read.
func (h *ChatHandler) MarkConversationRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil || otherID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	updated, err := h.messageRepository.MarkConversationRead(c.Request().Context(), currentUserID, uint(otherID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"updated": updated,
		},
	})
}

// MarkMessageRead flips one message's read flag. Only the receiver may mark
// a message; anything else reads as not found. Idempotent: re-marking a read
// message succeeds without change.
func (h *ChatHandler) MarkMessageRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.messageRepository.MarkMessageRead(c.Request().Context(), currentUserID, c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Message not found")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
