package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tidegram/backend/internal/models"
)

func TestUserLookups(t *testing.T) {
	repo := NewPostgresUserRepository(newTestDB(t))

	user := &models.User{Name: "Alice", Email: "alice@example.com", AvatarURL: "https://cdn.example.com/a.png", FirebaseUID: "fb-alice"}
	require.NoError(t, repo.CreateUser(user))
	require.NotZero(t, user.ID)

	byID, err := repo.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.Name)

	byUID, err := repo.GetUserByFirebaseUID("fb-alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUID.ID)

	_, err = repo.GetUserByID(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	compact := byID.ToCompact()
	assert.Equal(t, models.UserCompact{ID: user.ID, Name: "Alice", AvatarURL: "https://cdn.example.com/a.png"}, compact)
}
