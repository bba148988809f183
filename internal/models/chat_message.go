package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attachment type values assigned by the message router on send.
const (
	AttachmentImage    = "image"
	AttachmentVideo    = "video"
	AttachmentDocument = "document"
	AttachmentFile     = "file"
)

// ChatMessage represents a direct message between two users (MongoDB).
// Sender, receiver, content and created_at are immutable once persisted;
// only is_read may change afterwards.
type ChatMessage struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SenderID       uint               `json:"sender_id" bson:"sender_id"`
	ReceiverID     uint               `json:"receiver_id" bson:"receiver_id"`
	Content        string             `json:"content" bson:"content"`
	AttachmentURL  string             `json:"attachment_url,omitempty" bson:"attachment_url,omitempty"`
	AttachmentType string             `json:"attachment_type,omitempty" bson:"attachment_type,omitempty"`
	AttachmentName string             `json:"attachment_name,omitempty" bson:"attachment_name,omitempty"`
	// Sender display data snapshotted at send time so later profile edits
	// never rewrite history.
	SenderName   string    `json:"sender_name" bson:"sender_name"`
	SenderAvatar string    `json:"sender_avatar,omitempty" bson:"sender_avatar,omitempty"`
	IsRead       bool      `json:"is_read" bson:"is_read"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// SendMessageRequest is the inbound chat send payload. The sender_id field is
// only a cross-check; authorization always comes from the connection's bound
// identity.
type SendMessageRequest struct {
	SenderID       uint   `json:"sender_id"`
	ReceiverID     uint   `json:"receiver_id" validate:"required"`
	Content        string `json:"content" validate:"max=4000"`
	AttachmentURL  string `json:"attachment_url,omitempty" validate:"omitempty,url"`
	AttachmentName string `json:"attachment_name,omitempty" validate:"omitempty,max=255"`
}

// ConversationSummary is one row of the conversations list: the other party,
// the latest message, and how many of their messages are still unread.
type ConversationSummary struct {
	OtherUserID          uint        `json:"other_user_id"`
	OtherUser            UserCompact `json:"other_user"`
	LastMessagePreview   string      `json:"last_message_preview"`
	LastMessageTimestamp time.Time   `json:"last_message_timestamp"`
	UnreadCount          int64       `json:"unread_count"`
}
