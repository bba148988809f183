package repositories

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tidegram/backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Notification{}))
	return db
}

func seedNotifications(t *testing.T, repo NotificationRepository) []*models.Notification {
	t.Helper()
	seed := []*models.Notification{
		{Kind: models.NotificationLike, ActorID: 1, RecipientID: 2, Message: "Alice liked your post", CreatedAt: time.Now().Add(-2 * time.Hour)},
		{Kind: models.NotificationComment, ActorID: 3, RecipientID: 2, Message: "Carol commented on your post", CreatedAt: time.Now().Add(-time.Hour)},
		{Kind: models.NotificationFriendRequest, ActorID: 1, RecipientID: 2, Message: "Alice sent you a friend request", CreatedAt: time.Now()},
		{Kind: models.NotificationLike, ActorID: 2, RecipientID: 3, Message: "Bob liked your post", CreatedAt: time.Now()},
	}
	for _, n := range seed {
		require.NoError(t, repo.CreateNotification(n))
	}
	return seed
}

func TestNotificationListNewestFirst(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	seedNotifications(t, repo)

	notifications, total, err := repo.GetByRecipientID(2, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "only the recipient's notifications count")
	require.Len(t, notifications, 3)
	assert.Equal(t, models.NotificationFriendRequest, notifications[0].Kind)
	for i := 1; i < len(notifications); i++ {
		assert.False(t, notifications[i-1].CreatedAt.Before(notifications[i].CreatedAt),
			"listing must be newest first")
	}
}

func TestNotificationPagination(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	seedNotifications(t, repo)

	page1, total, err := repo.GetByRecipientID(2, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page1, 2)

	page2, _, err := repo.GetByRecipientID(2, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 1)
}

func TestNotificationUnreadCountAndMarkRead(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	seed := seedNotifications(t, repo)

	count, err := repo.GetUnreadCount(2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, repo.MarkAsRead(2, seed[0].ID))
	count, err = repo.GetUnreadCount(2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Marking again is a no-op, not an error.
	require.NoError(t, repo.MarkAsRead(2, seed[0].ID))
	count, err = repo.GetUnreadCount(2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestNotificationMarkReadScopedToRecipient(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	seed := seedNotifications(t, repo)

	// User 3 cannot mark user 2's notification.
	err := repo.MarkAsRead(3, seed[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	count, err := repo.GetUnreadCount(2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestNotificationMarkAllAsRead(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	seedNotifications(t, repo)

	require.NoError(t, repo.MarkAllAsRead(2))

	count, err := repo.GetUnreadCount(2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Other recipients are untouched.
	count, err = repo.GetUnreadCount(3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
