package realtime

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tidegram/backend/internal/models"
	"github.com/tidegram/backend/internal/repositories"
)

// Publish-path errors producers can act on. Anything else coming out of
// Publish is a server-side persistence fault.
var (
	ErrUnknownNotificationKind = errors.New("unknown notification kind")
	ErrUnknownActor            = errors.New("actor does not exist")
)

// Notifier converts domain events (like, comment, friend request) into
// addressed notifications. Same persistence-then-delivery sequencing as the
// chat path, but there is no echo: only the target user receives the event.
type Notifier struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	hub           Deliverer
	log           *zap.Logger
}

func NewNotifier(notifications repositories.NotificationRepository, users repositories.UserRepository, hub Deliverer, log *zap.Logger) *Notifier {
	return &Notifier{
		notifications: notifications,
		users:         users,
		hub:           hub,
		log:           log,
	}
}

// renderNotification produces the display text for a notification kind. The
// kind set is closed: an unrecognized kind is a programming error in the
// producing feature, surfaced as an error, never skipped.
func renderNotification(kind models.NotificationKind, actorName string) (string, error) {
	switch kind {
	case models.NotificationLike:
		return actorName + " liked your post", nil
	case models.NotificationComment:
		return actorName + " commented on your post", nil
	case models.NotificationShare:
		return actorName + " shared your post", nil
	case models.NotificationNewPost:
		return actorName + " published a new post", nil
	case models.NotificationCommentLike:
		return actorName + " liked your comment", nil
	case models.NotificationCommentReply:
		return actorName + " replied to your comment", nil
	case models.NotificationFriendRequest:
		return actorName + " sent you a friend request", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownNotificationKind, kind)
	}
}

// Publish renders, persists and delivers one notification event. Persistence
// failure aborts the publish; a delivery fault after persistence is logged
// and the stored notification is still returned.
func (n *Notifier) Publish(ctx context.Context, event models.NotificationEvent) (*models.Notification, error) {
	actor, err := n.users.GetUserByID(event.ActorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownActor, event.ActorID)
	}

	text, err := renderNotification(event.Kind, actor.Name)
	if err != nil {
		return nil, err
	}

	notification := &models.Notification{
		Kind:        event.Kind,
		ActorID:     event.ActorID,
		RecipientID: event.TargetUser,
		TargetID:    event.TargetID,
		TargetType:  event.TargetType,
		Message:     text,
	}
	if err := n.notifications.CreateNotification(notification); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	n.deliver(notification, actor.ToCompact())
	return notification, nil
}

// deliver pushes the notification to the target user only. Faults never undo
// persistence; the recipient catches up via the listing endpoint.
func (n *Notifier) deliver(notification *models.Notification, actor models.UserCompact) {
	defer func() {
		if rec := recover(); rec != nil {
			n.log.Error("notification delivery panic",
				zap.Uint("recipient_id", notification.RecipientID),
				zap.Any("panic", rec))
		}
	}()

	delivered := n.hub.SendToUser(notification.RecipientID, Event{
		Type: EventNotification,
		Data: map[string]interface{}{
			"notification": notification,
			"actor":        actor,
		},
	})
	if delivered == 0 {
		n.log.Debug("notification recipient unreachable, stored only",
			zap.Uint("recipient_id", notification.RecipientID))
	}
}
