package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tidegram/backend/internal/models"
)

// fakeNotificationRepo implements repositories.NotificationRepository.
type fakeNotificationRepo struct {
	created    []*models.Notification
	failCreate bool
}

func (r *fakeNotificationRepo) CreateNotification(n *models.Notification) error {
	if r.failCreate {
		return errors.New("store unavailable")
	}
	n.ID = uint(len(r.created) + 1)
	r.created = append(r.created, n)
	return nil
}

func (r *fakeNotificationRepo) GetByRecipientID(_ uint, _, _ int) ([]models.Notification, int64, error) {
	return nil, 0, nil
}

func (r *fakeNotificationRepo) GetUnreadCount(_ uint) (int64, error) { return 0, nil }

func (r *fakeNotificationRepo) MarkAsRead(_, _ uint) error { return nil }

func (r *fakeNotificationRepo) MarkAllAsRead(_ uint) error { return nil }

func TestRenderNotificationAllKinds(t *testing.T) {
	testCases := []struct {
		kind     models.NotificationKind
		expected string
	}{
		{models.NotificationLike, "U1 liked your post"},
		{models.NotificationComment, "U1 commented on your post"},
		{models.NotificationShare, "U1 shared your post"},
		{models.NotificationNewPost, "U1 published a new post"},
		{models.NotificationCommentLike, "U1 liked your comment"},
		{models.NotificationCommentReply, "U1 replied to your comment"},
		{models.NotificationFriendRequest, "U1 sent you a friend request"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.kind), func(t *testing.T) {
			text, err := renderNotification(tc.kind, "U1")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, text)
		})
	}
}

func TestRenderNotificationUnknownKind(t *testing.T) {
	_, err := renderNotification(models.NotificationKind("poke"), "U1")
	assert.ErrorIs(t, err, ErrUnknownNotificationKind)
}

func TestPublishDeliversOnlyToTarget(t *testing.T) {
	repo := &fakeNotificationRepo{}
	deliverer := &fakeDeliverer{online: map[uint]int{1: 1, 2: 1}}
	users := newFakeUserRepo(&models.User{ID: 1, Name: "Alice"}, &models.User{ID: 2, Name: "Bob"})
	notifier := NewNotifier(repo, users, deliverer, zap.NewNop())

	notification, err := notifier.Publish(context.Background(), models.NotificationEvent{
		Kind:       models.NotificationLike,
		ActorID:    1,
		TargetUser: 2,
		TargetID:   "P7",
		TargetType: "post",
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice liked your post", notification.Message)
	assert.Equal(t, uint(2), notification.RecipientID)
	require.Len(t, repo.created, 1)

	// No echo to the actor: exactly one delivery, addressed to the target.
	require.Len(t, deliverer.sent, 1)
	assert.Equal(t, uint(2), deliverer.sent[0].userID)
	assert.Equal(t, EventNotification, deliverer.sent[0].event.Type)
}

func TestPublishUnknownKindRejectedBeforePersist(t *testing.T) {
	repo := &fakeNotificationRepo{}
	deliverer := &fakeDeliverer{online: map[uint]int{}}
	users := newFakeUserRepo(&models.User{ID: 1, Name: "Alice"})
	notifier := NewNotifier(repo, users, deliverer, zap.NewNop())

	_, err := notifier.Publish(context.Background(), models.NotificationEvent{
		Kind:       models.NotificationKind("wave"),
		ActorID:    1,
		TargetUser: 2,
	})
	assert.ErrorIs(t, err, ErrUnknownNotificationKind)
	assert.Empty(t, repo.created)
	assert.Empty(t, deliverer.sent)
}

func TestPublishOfflineTargetStillPersists(t *testing.T) {
	repo := &fakeNotificationRepo{}
	deliverer := &fakeDeliverer{online: map[uint]int{}}
	users := newFakeUserRepo(&models.User{ID: 1, Name: "Alice"}, &models.User{ID: 2, Name: "Bob"})
	notifier := NewNotifier(repo, users, deliverer, zap.NewNop())

	_, err := notifier.Publish(context.Background(), models.NotificationEvent{
		Kind:       models.NotificationFriendRequest,
		ActorID:    1,
		TargetUser: 2,
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, 0, deliverer.deliveriesTo(2))
}

func TestPublishUnknownActor(t *testing.T) {
	repo := &fakeNotificationRepo{}
	deliverer := &fakeDeliverer{online: map[uint]int{}}
	notifier := NewNotifier(repo, newFakeUserRepo(), deliverer, zap.NewNop())

	_, err := notifier.Publish(context.Background(), models.NotificationEvent{
		Kind:       models.NotificationLike,
		ActorID:    42,
		TargetUser: 2,
	})
	assert.ErrorIs(t, err, ErrUnknownActor)
	assert.Empty(t, repo.created)
}

func TestPublishPersistenceFailure(t *testing.T) {
	repo := &fakeNotificationRepo{failCreate: true}
	deliverer := &fakeDeliverer{online: map[uint]int{2: 1}}
	users := newFakeUserRepo(&models.User{ID: 1, Name: "Alice"})
	notifier := NewNotifier(repo, users, deliverer, zap.NewNop())

	_, err := notifier.Publish(context.Background(), models.NotificationEvent{
		Kind:       models.NotificationLike,
		ActorID:    1,
		TargetUser: 2,
	})
	require.Error(t, err)
	// A store fault is not a producer mistake.
	assert.NotErrorIs(t, err, ErrUnknownNotificationKind)
	assert.NotErrorIs(t, err, ErrUnknownActor)
	assert.Empty(t, deliverer.sent, "nothing is delivered when persistence fails")
}
