package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tidegram/backend/internal/models"
	"github.com/tidegram/backend/internal/repositories"
)

// Send-path errors. Validation errors reject the single operation and leave
// the connection open; ErrPartialDelivery means the message IS durable but at
// least one delivery destination faulted.
var (
	ErrSenderMismatch  = errors.New("sender does not match connection identity")
	ErrSelfMessage     = errors.New("sender and receiver must differ")
	ErrEmptyContent    = errors.New("content required unless an attachment is present")
	ErrUnknownReceiver = errors.New("receiver does not exist")
	ErrPartialDelivery = errors.New("message stored but not fully delivered")
)

// MessageRouter owns the whole chat send path: validate, enrich, persist,
// fan out. There is exactly one router; the websocket dispatcher and any
// HTTP send surface both go through it.
type MessageRouter struct {
	messages repositories.MessageRepository
	users    repositories.UserRepository
	hub      Deliverer

	// activityBroadcast enables the optional shared destination carrying a
	// thin refresh hint on every successful send.
	activityBroadcast bool
	log               *zap.Logger
}

func NewMessageRouter(messages repositories.MessageRepository, users repositories.UserRepository, hub Deliverer, activityBroadcast bool, log *zap.Logger) *MessageRouter {
	return &MessageRouter{
		messages:          messages,
		users:             users,
		hub:               hub,
		activityBroadcast: activityBroadcast,
		log:               log,
	}
}

// Send processes one send request from an identity-bound source. senderID is
// the connection's bound identity; the request's sender field is only a
// cross-check. On success the message is durable whether or not the receiver
// was reachable — an offline receiver is normal operation, not a failure.
func (r *MessageRouter) Send(ctx context.Context, senderID uint, req models.SendMessageRequest) (*models.ChatMessage, error) {
	if req.SenderID != 0 && req.SenderID != senderID {
		return nil, ErrSenderMismatch
	}
	if req.ReceiverID == senderID {
		return nil, ErrSelfMessage
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && req.AttachmentURL == "" {
		return nil, ErrEmptyContent
	}

	sender, err := r.users.GetUserByID(senderID)
	if err != nil {
		return nil, fmt.Errorf("resolve sender %d: %w", senderID, err)
	}
	if _, err := r.users.GetUserByID(req.ReceiverID); err != nil {
		return nil, ErrUnknownReceiver
	}

	msg := &models.ChatMessage{
		SenderID:       senderID,
		ReceiverID:     req.ReceiverID,
		Content:        content,
		AttachmentURL:  req.AttachmentURL,
		AttachmentName: req.AttachmentName,
		// Snapshot display data at send time so later renames never
		// rewrite history.
		SenderName:   sender.Name,
		SenderAvatar: sender.AvatarURL,
	}
	if req.AttachmentURL != "" {
		msg.AttachmentType = ClassifyAttachment(req.AttachmentURL, req.AttachmentName)
	}

	// Persistence failure aborts the whole send; nothing is delivered.
	if err := r.messages.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	if err := r.deliver(msg); err != nil {
		r.log.Error("fan-out fault after successful persist",
			zap.Uint("sender_id", senderID),
			zap.Uint("receiver_id", req.ReceiverID),
			zap.Error(err))
		return msg, ErrPartialDelivery
	}
	return msg, nil
}

// deliver fans the persisted message out to the receiver's inbox, the
// sender's own destination (so other tabs converge), and optionally the
// shared activity destination. A fault here must never undo persistence, so
// panics are contained and reported as an error.
func (r *MessageRouter) deliver(msg *models.ChatMessage) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("delivery panic: %v", rec)
		}
	}()

	ev := Event{Type: EventChatMessage, Data: msg}
	delivered := r.hub.SendToUser(msg.ReceiverID, ev)
	r.hub.SendToUser(msg.SenderID, ev)

	if r.activityBroadcast {
		r.hub.Broadcast(Event{Type: EventChatActivity, Data: map[string]interface{}{
			"sender_id":   msg.SenderID,
			"receiver_id": msg.ReceiverID,
			"created_at":  msg.CreatedAt,
		}})
	}

	if delivered == 0 {
		// Receiver offline; the message waits in the store for the next
		// history fetch.
		r.log.Debug("receiver unreachable, stored only",
			zap.Uint("receiver_id", msg.ReceiverID))
	}
	return nil
}

// HandleSend adapts Send to the websocket dispatcher: outcomes are reported
// back on the submitting connection instead of an HTTP status.
func (r *MessageRouter) HandleSend(ctx context.Context, client *Client, req models.SendMessageRequest) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.Send(ctx, client.UserID(), req)
	switch {
	case err == nil:
	case errors.Is(err, ErrPartialDelivery):
		client.deliver(Event{Type: EventChatWarning, Data: errorPayload{
			Reason:  "partial_delivery",
			Message: "message stored but not fully delivered",
		}})
	case errors.Is(err, ErrSenderMismatch),
		errors.Is(err, ErrSelfMessage),
		errors.Is(err, ErrEmptyContent),
		errors.Is(err, ErrUnknownReceiver):
		client.deliver(Event{Type: EventChatError, Data: errorPayload{
			Reason:  "validation_failed",
			Message: err.Error(),
		}})
	default:
		// Persistence or lookup failure: the sender must know delivery did
		// not happen.
		r.log.Error("chat send failed", zap.Uint("sender_id", client.UserID()), zap.Error(err))
		client.deliver(Event{Type: EventChatError, Data: errorPayload{
			Reason:  "send_failed",
			Message: "message was not sent",
		}})
	}
}
