package directory

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/fault"
)

func setupService(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.AutoMigrate(&models.User{}))

	return db, NewService(db)
}

func createUser(t *testing.T, db *gorm.DB, id uint64, username string, active bool, lastLogin *time.Time) {
	t.Helper()

	require.NoError(t, db.Create(&models.User{
		ID:          id,
		Username:    username,
		Email:       username + "@example.com",
		Active:      active,
		LastLoginAt: lastLogin,
	}).Error)
}

func TestGetUser(t *testing.T) {
	db, svc := setupService(t)
	ctx := context.Background()

	createUser(t, db, 1, "alice", true, nil)

	user, err := svc.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.GetUser(ctx, 99)
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}

func TestSetUserStatus(t *testing.T) {
	db, svc := setupService(t)
	ctx := context.Background()

	createUser(t, db, 1, "alice", true, nil)

	require.NoError(t, svc.SetUserStatus(ctx, 1, false))

	active, err := svc.GetUserStatus(ctx, 1)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, svc.SetUserStatus(ctx, 1, true))

	active, err = svc.GetUserStatus(ctx, 1)
	require.NoError(t, err)
	assert.True(t, active)

	err = svc.SetUserStatus(ctx, 99, false)
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}

func TestTouchLastLogin(t *testing.T) {
	db, svc := setupService(t)
	ctx := context.Background()

	createUser(t, db, 1, "alice", true, nil)

	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.TouchLastLogin(ctx, 1, at))

	user, err := svc.GetUser(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)
	assert.True(t, user.LastLoginAt.Equal(at))

	err = svc.TouchLastLogin(ctx, 99, at)
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}

func TestFindDormantUsers(t *testing.T) {
	db, svc := setupService(t)
	ctx := context.Background()

	cutoff := time.Date(2024, 3, 17, 12, 0, 0, 0, time.UTC)
	beforeCutoff := cutoff.AddDate(0, 0, -30)
	afterCutoff := cutoff.AddDate(0, 0, 30)

	createUser(t, db, 1, "never-logged-in", true, nil)
	createUser(t, db, 2, "stale", true, &beforeCutoff)
	createUser(t, db, 3, "recent", true, &afterCutoff)
	createUser(t, db, 4, "disabled-stale", false, &beforeCutoff)

	dormant, err := svc.FindDormantUsers(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, dormant, 2)

	usernames := make(map[string]bool, len(dormant))
	for _, user := range dormant {
		usernames[user.Username] = true
	}

	assert.True(t, usernames["never-logged-in"])
	assert.True(t, usernames["stale"])
}
