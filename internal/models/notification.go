package models

import "time"

// NotificationKind is the closed set of events the notifier can render.
// Adding a kind means extending the switch in the notifier; there is no
// default template for unknown kinds.
type NotificationKind string

const (
	NotificationLike          NotificationKind = "like"
	NotificationComment       NotificationKind = "comment"
	NotificationShare         NotificationKind = "share"
	NotificationNewPost       NotificationKind = "new_post"
	NotificationCommentLike   NotificationKind = "comment_like"
	NotificationCommentReply  NotificationKind = "comment_reply"
	NotificationFriendRequest NotificationKind = "friend_request"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Kind        NotificationKind `json:"kind" gorm:"size:30;index"`
	ActorID     uint             `json:"actor_id" gorm:"index"`
	RecipientID uint             `json:"recipient_id" gorm:"index"`
	TargetID    string           `json:"target_id"`                  // post ID, comment ID, etc.
	TargetType  string           `json:"target_type" gorm:"size:20"` // post, comment, user
	Message     string           `json:"message"`
	IsRead      bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`
}

// NotificationEvent is the transient signal a producing feature (post,
// comment, friendship service) hands to the notifier. The notifier renders
// it into a Notification and delivers it to the target user's channel.
type NotificationEvent struct {
	Kind       NotificationKind `json:"kind" validate:"required"`
	ActorID    uint             `json:"actor_id" validate:"required"`
	TargetUser uint             `json:"target_user" validate:"required"`
	TargetID   string           `json:"target_id,omitempty"`
	TargetType string           `json:"target_type,omitempty"`
}
