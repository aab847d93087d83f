package authz

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
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
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// seedRoleWithPermissions creates a role carrying the given permissions,
// creating the permissions as needed.
func seedRoleWithPermissions(t *testing.T, db *gorm.DB, roleName string, perms [][2]string) models.Role {
	t.Helper()

	role := models.Role{Name: roleName}
	require.NoError(t, db.Create(&role).Error)

	for _, pair := range perms {
		perm := models.Permission{
			Name:     pair[0] + "." + pair[1],
			Resource: pair[0],
			Action:   pair[1],
		}
		err := db.Where("resource = ? AND action = ?", pair[0], pair[1]).FirstOrCreate(&perm).Error
		require.NoError(t, err)

		require.NoError(t, db.Create(&models.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error)
	}

	return role
}

// seedUser creates a user account.
func seedUser(t *testing.T, db *gorm.DB, id uint64, username string) models.User {
	t.Helper()

	user := models.User{ID: id, Username: username, Email: username + "@example.com", Active: true}
	require.NoError(t, db.Create(&user).Error)

	return user
}

// assignRole creates a role assignment at the given workspace scope.
func assignRole(t *testing.T, db *gorm.DB, userID uint64, roleID uint, orgID, workspaceID *uint) {
	t.Helper()

	require.NoError(t, db.Create(&models.UserRole{
		UserID:         userID,
		RoleID:         roleID,
		OrganizationID: orgID,
		WorkspaceID:    workspaceID,
	}).Error)
}

func TestGetUserPermissions(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db)
	ctx := context.Background()

	seedUser(t, db, 1, "alice")
	editor := seedRoleWithPermissions(t, db, "editor", [][2]string{
		{"workflow", "read"},
		{"workflow", "write"},
	})
	viewer := seedRoleWithPermissions(t, db, "viewer", [][2]string{
		{"workflow", "read"}, // overlaps with editor
		{"report", "read"},
	})

	assignRole(t, db, 1, editor.ID, nil, nil)
	assignRole(t, db, 1, viewer.ID, nil, nil)

	permissions, err := resolver.GetUserPermissions(ctx, 1)
	require.NoError(t, err)

	// union across roles, deduplicated by permission identity
	assert.Len(t, permissions, 3)

	names := make(map[string]bool)
	for _, perm := range permissions {
		names[perm.Name] = true
	}

	assert.True(t, names["workflow.read"])
	assert.True(t, names["workflow.write"])
	assert.True(t, names["report.read"])
}

func TestGetUserPermissionsNoRoles(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db)

	seedUser(t, db, 1, "alice")

	permissions, err := resolver.GetUserPermissions(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, permissions)
}

func TestHasPermission(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db)
	ctx := context.Background()

	seedUser(t, db, 1, "alice")
	editor := seedRoleWithPermissions(t, db, "editor", [][2]string{{"workflow", "write"}})
	assignRole(t, db, 1, editor.ID, nil, nil)

	testCases := []struct {
		name     string
		userID   uint64
		resource string
		action   string
		expected bool
	}{
		{name: "granted via role", userID: 1, resource: "workflow", action: "write", expected: true},
		{name: "action not granted", userID: 1, resource: "workflow", action: "delete", expected: false},
		{name: "resource not granted", userID: 1, resource: "report", action: "write", expected: false},
		{name: "unknown user", userID: 99, resource: "workflow", action: "write", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			has, err := resolver.HasPermission(ctx, tc.userID, tc.resource, tc.action)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, has)
		})
	}
}

func TestGetUserPermissionsForResourceType(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db)

	seedUser(t, db, 1, "alice")
	role := seedRoleWithPermissions(t, db, "mixed", [][2]string{
		{"workflow", "read"},
		{"workflow", "write"},
		{"report", "read"},
	})
	assignRole(t, db, 1, role.ID, nil, nil)

	permissions, err := resolver.GetUserPermissionsForResourceType(context.Background(), 1, "workflow")
	require.NoError(t, err)

	assert.Len(t, permissions, 2)
	for _, perm := range permissions {
		assert.Equal(t, "workflow", perm.Resource)
	}
}

func TestFindMultiRoleUsers(t *testing.T) {
	db := setupTestDB(t)
	resolver := NewResolver(db)

	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")
	seedUser(t, db, 3, "carol")

	editor := seedRoleWithPermissions(t, db, "editor", [][2]string{{"workflow", "write"}})
	viewer := seedRoleWithPermissions(t, db, "viewer", [][2]string{{"workflow", "read"}})

	wsA := uint(10)
	wsB := uint(11)

	// alice holds two distinct roles
	assignRole(t, db, 1, editor.ID, nil, nil)
	assignRole(t, db, 1, viewer.ID, nil, nil)
	// bob holds one role at two workspace scopes; counts once
	assignRole(t, db, 2, editor.ID, nil, &wsA)
	assignRole(t, db, 2, editor.ID, nil, &wsB)
	// carol holds one role
	assignRole(t, db, 3, viewer.ID, nil, nil)

	multiRole, err := resolver.FindMultiRoleUsers(context.Background())
	require.NoError(t, err)

	require.Len(t, multiRole, 1)
	assert.Equal(t, uint64(1), multiRole[0].UserID)
	assert.Equal(t, 2, multiRole[0].RoleCount)
	assert.Equal(t, []string{"editor", "viewer"}, multiRole[0].RoleNames)
}
