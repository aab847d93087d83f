package review

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/authz"
	"github.com/accessdesk/accessdesk/internal/authz/cache"
	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/directory"
	"github.com/accessdesk/accessdesk/internal/fault"
)

// setupEngine creates an engine over an in-memory SQLite database with a
// fixed clock so time-dependent assertions are deterministic.
func setupEngine(t *testing.T) (*gorm.DB, *Engine) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Organization{},
		&models.Workspace{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.UserRole{},
		&models.ResourcePermission{},
		&models.AccessReview{},
		&models.AccessReviewItem{},
		&models.AccessReviewAction{},
		&models.AccessReviewSchedule{},
		&models.AuditEvent{},
	)
	require.NoError(t, err, "failed to migrate test database")

	resolver := authz.NewResolver(db)
	store := authz.NewStore(db)
	authority := authz.NewAuthority(db, resolver, store, cache.NewMemoryCache(0), nil)
	engine := NewEngine(db, authority, resolver, store, directory.NewService(db), nil, 0)
	engine.now = func() time.Time { return testClock }

	return db, engine
}

// testClock is the frozen time setupEngine installs; tests that need the
// clock to move reassign engine.now themselves.
var testClock = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) //nolint:gochecknoglobals

func seedOrg(t *testing.T, db *gorm.DB, name string) models.Organization {
	t.Helper()

	org := models.Organization{Name: name}
	require.NoError(t, db.Create(&org).Error)

	return org
}

func seedWorkspace(t *testing.T, db *gorm.DB, orgID uint, name string) models.Workspace {
	t.Helper()

	ws := models.Workspace{OrganizationID: orgID, Name: name}
	require.NoError(t, db.Create(&ws).Error)

	return ws
}

func seedAccount(t *testing.T, db *gorm.DB, id uint64, username string, lastLogin *time.Time) models.User {
	t.Helper()

	user := models.User{
		ID:          id,
		Username:    username,
		Email:       username + "@example.com",
		Active:      true,
		LastLoginAt: lastLogin,
	}
	require.NoError(t, db.Create(&user).Error)

	return user
}

func seedRole(t *testing.T, db *gorm.DB, name string) models.Role {
	t.Helper()

	role := models.Role{Name: name}
	require.NoError(t, db.Create(&role).Error)

	return role
}

func grantRole(t *testing.T, db *gorm.DB, userID uint64, roleID uint, orgID, workspaceID *uint) {
	t.Helper()

	require.NoError(t, db.Create(&models.UserRole{
		UserID:         userID,
		RoleID:         roleID,
		OrganizationID: orgID,
		WorkspaceID:    workspaceID,
	}).Error)
}

// orgReview creates an organization-scoped pending review for tests.
func orgReview(t *testing.T, db *gorm.DB, engine *Engine) (*models.AccessReview, models.Organization) {
	t.Helper()

	org := seedOrg(t, db, "acme")

	review, err := engine.CreateReview(context.Background(), CreateReviewInput{
		Name:           "Q2 access review",
		Scope:          models.ReviewScopeOrganization,
		OrganizationID: &org.ID,
		CreatedBy:      1,
	})
	require.NoError(t, err)

	return review, org
}

func boolPtr(v bool) *bool { return &v }

func TestCreateReviewValidation(t *testing.T) {
	db, engine := setupEngine(t)
	ctx := context.Background()

	org := seedOrg(t, db, "acme")
	missingOrg := org.ID + 100

	testCases := []struct {
		name  string
		input CreateReviewInput
		kind  fault.Kind
	}{
		{
			name:  "missing name",
			input: CreateReviewInput{Scope: models.ReviewScopeOrganization, OrganizationID: &org.ID, CreatedBy: 1},
			kind:  fault.KindValidation,
		},
		{
			name:  "missing creator",
			input: CreateReviewInput{Name: "r", Scope: models.ReviewScopeOrganization, OrganizationID: &org.ID},
			kind:  fault.KindValidation,
		},
		{
			name:  "organization scope without organization",
			input: CreateReviewInput{Name: "r", Scope: models.ReviewScopeOrganization, CreatedBy: 1},
			kind:  fault.KindValidation,
		},
		{
			name:  "workspace scope without workspace",
			input: CreateReviewInput{Name: "r", Scope: models.ReviewScopeWorkspace, CreatedBy: 1},
			kind:  fault.KindValidation,
		},
		{
			name:  "unknown scope",
			input: CreateReviewInput{Name: "r", Scope: "galaxy", CreatedBy: 1},
			kind:  fault.KindValidation,
		},
		{
			name:  "unknown organization",
			input: CreateReviewInput{Name: "r", Scope: models.ReviewScopeOrganization, OrganizationID: &missingOrg, CreatedBy: 1},
			kind:  fault.KindNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.CreateReview(ctx, tc.input)
			require.Error(t, err)
			assert.True(t, fault.IsKind(err, tc.kind), "expected %s fault, got %v", tc.kind, err)
		})
	}
}

func TestCreateReviewDefaults(t *testing.T) {
	db, engine := setupEngine(t)

	review, _ := orgReview(t, db, engine)

	assert.NotEmpty(t, review.ID)
	assert.Equal(t, models.ReviewStatusPending, review.Status)
	assert.Equal(t, models.ReviewTypeAdHoc, review.Type)
	assert.Nil(t, review.StartDate)
	assert.Nil(t, review.CompletedDate)
}

func TestGetReviewNotFound(t *testing.T) {
	_, engine := setupEngine(t)

	_, err := engine.GetReview(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}

func TestListReviewsFilter(t *testing.T) {
	db, engine := setupEngine(t)
	ctx := context.Background()

	org := seedOrg(t, db, "acme")
	ws := seedWorkspace(t, db, org.ID, "platform")

	_, err := engine.CreateReview(ctx, CreateReviewInput{
		Name: "org review", Scope: models.ReviewScopeOrganization, OrganizationID: &org.ID, CreatedBy: 1,
	})
	require.NoError(t, err)

	wsReview, err := engine.CreateReview(ctx, CreateReviewInput{
		Name: "workspace review", Scope: models.ReviewScopeWorkspace, WorkspaceID: &ws.ID, CreatedBy: 1, AssignedTo: 7,
	})
	require.NoError(t, err)

	all, err := engine.ListReviews(ctx, ReviewFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scope := models.ReviewScopeWorkspace
	scoped, err := engine.ListReviews(ctx, ReviewFilter{Scope: &scope})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, wsReview.ID, scoped[0].ID)

	assignee := uint64(7)
	assigned, err := engine.ListReviews(ctx, ReviewFilter{AssignedTo: &assignee})
	require.NoError(t, err)
	assert.Len(t, assigned, 1)
}

func TestUpdateReviewCompletedDateStampedOnce(t *testing.T) {
	db, engine := setupEngine(t)
	ctx := context.Background()

	review, _ := orgReview(t, db, engine)

	firstCompletion := time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return firstCompletion }

	completed := models.ReviewStatusCompleted
	updated, err := engine.UpdateReview(ctx, review.ID, UpdateReviewInput{Status: &completed}, 1)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedDate)
	assert.True(t, updated.CompletedDate.Equal(firstCompletion))

	// a later completed patch must not move the stamp
	engine.now = func() time.Time { return firstCompletion.Add(48 * time.Hour) }

	updated, err = engine.UpdateReview(ctx, review.ID, UpdateReviewInput{Status: &completed}, 1)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedDate)
	assert.True(t, updated.CompletedDate.Equal(firstCompletion), "completed date should not be re-stamped")
}

func TestUpdateReviewNotFound(t *testing.T) {
	_, engine := setupEngine(t)

	name := "renamed"
	_, err := engine.UpdateReview(context.Background(), "nope", UpdateReviewInput{Name: &name}, 1)
	assert.True(t, fault.IsKind(err, fault.KindNotFound))
}

func TestGenerateUserRoleItemsOrganizationScope(t *testing.T) {
	db, engine := setupEngine(t)
	ctx := context.Background()

	review, org := orgReview(t, db, engine)
	ws := seedWorkspace(t, db, org.ID, "platform")

	seedAccount(t, db, 1, "alice", nil)
	seedAccount(t, db, 2, "bob", nil)
	seedAccount(t, db, 3, "carol", nil)

	editor := seedRole(t, db, "editor")

	// three organization-level assignments in scope
	grantRole(t, db, 1, editor.ID, &org.ID, nil)
	grantRole(t, db, 2, editor.ID, &org.ID, nil)
	grantRole(t, db, 3, editor.ID, &org.ID, nil)
	// a workspace-level assignment that must not be picked up
	grantRole(t, db, 1, editor.ID, &org.ID, &ws.ID)

	count, err := engine.GenerateReviewItems(ctx, review.ID, GenerateOptions{
		IncludeResourcePermissions: boolPtr(false),
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	items, err := engine.ListReviewItems(ctx, ItemFilter{ReviewID: &review.ID})
	require.NoError(t, err)
	require.Len(t, items, 3)

	for _, item := range items {
		assert.Equal(t, models.ReviewItemTypeUserRole, item.Type)
		assert.Equal(t, models.ReviewItemStatusPending, item.Status)
		require.NotNil(t, item.RoleID)
		assert.Equal(t, editor.ID, *item.RoleID)
	}

	refreshed, err := engine.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusInProgress, refreshed.Status)
	require.NotNil(t, refreshed.StartDate)
	assert.True(t, refreshed.StartDate.Equal(testClock))
}

func TestGenerateUserRoleItemsWorkspaceScope(t *testing.T) {
	db, engine := setupEngine(t)
	ctx := context.Background()

	org := seedOrg(t, db, "acme")
	ws := seedWorkspace(t, db, org.ID, "platform")
	other := seedWorkspace(t, db, org.ID, "data")

	review, err := engine.CreateReview(ctx, CreateReviewInput{
		Name: "ws review", Scope: models.ReviewScopeWorkspace, WorkspaceID: &ws.ID, CreatedBy: 1,
	})
	require.NoError(t, err)

	seedAccount(t, db, 1, "alice", nil)
	editor := seedRole(t, db, "editor")

	grantRole(t, db, 1, editor.ID, &org.ID, &ws.ID)
	grantRole(t, db, 1, editor.ID, &org.ID, &other.ID)
	grantRole(t, db, 1, editor.ID, &org.ID, nil)

	count, err := engine.GenerateReviewItems(ctx, review.ID, GenerateOptions{
		IncludeResourcePermissions: boolPtr(false),
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only the reviewed workspace's assignment is in scope")
}

func TestDeleteReviewCascades(t *testing.T) {
	db, engine := setupEngine(t)
	ctx := context.Background()

	review, org := orgReview(t, db, engine)

	seedAccount(t, db, 1, "alice", nil)
	editor := seedRole(t, db, "editor")
	grantRole(t, db, 1, editor.ID, &org.ID, nil)

	_, err := engine.GenerateReviewItems(ctx, review.ID, GenerateOptions{
		IncludeResourcePermissions: boolPtr(false),
	}, 1)
	require.NoError(t, err)

	items, err := engine.ListReviewItems(ctx, ItemFilter{ReviewID: &review.ID})
	require.NoError(t, err)
	require.NotEmpty(t, items)

	_, err = engine.CreateReviewAction(ctx, ActionInput{
		ReviewItemID: items[0].ID,
		Type:         models.ReviewActionApprove,
		PerformedBy:  1,
	})
	require.NoError(t, err)

	require.NoError(t, engine.DeleteReview(ctx, review.ID, 1))

	_, err = engine.GetReview(ctx, review.ID)
	assert.True(t, fault.IsKind(err, fault.KindNotFound))

	var itemCount, actionCount int64

	db.Model(&models.AccessReviewItem{}).Where("review_id = ?", review.ID).Count(&itemCount)
	db.Model(&models.AccessReviewAction{}).Count(&actionCount)
	assert.Zero(t, itemCount, "items should be deleted with the review")
	assert.Zero(t, actionCount, "actions should be deleted with the review")
}
