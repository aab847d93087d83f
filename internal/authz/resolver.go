package authz

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/fault"
)

// Resolver computes role-derived permissions. Every call recomputes from the
// current role assignments; caching lives in the Authority.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a new role/permission resolver.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// GetUserPermissions returns the role closure of the user: the union of the
// permission sets of every role the user holds, deduplicated by permission
// identity.
func (r *Resolver) GetUserPermissions(ctx context.Context, userID uint64) ([]models.Permission, error) {
	var permissions []models.Permission

	err := r.db.WithContext(ctx).Table("permissions").
		Select("DISTINCT permissions.*").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID).
		Find(&permissions).Error
	if err != nil {
		return nil, fault.Storage("failed to resolve user permissions", err)
	}

	return permissions, nil
}

// GetUserPermissionsForResourceType filters the role closure down to one
// resource type.
func (r *Resolver) GetUserPermissionsForResourceType(
	ctx context.Context,
	userID uint64,
	resourceType string,
) ([]models.Permission, error) {
	var permissions []models.Permission

	err := r.db.WithContext(ctx).Table("permissions").
		Select("DISTINCT permissions.*").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ? AND permissions.resource = ?", userID, resourceType).
		Find(&permissions).Error
	if err != nil {
		return nil, fault.Storage("failed to resolve user permissions for resource type", err)
	}

	return permissions, nil
}

// HasPermission reports whether the role closure contains a permission
// matching (resourceType, action).
func (r *Resolver) HasPermission(
	ctx context.Context,
	userID uint64,
	resourceType, action string,
) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ? AND permissions.resource = ? AND permissions.action = ?",
			userID, resourceType, action).
		Count(&count).Error
	if err != nil {
		return false, fault.Storage("failed to check role permission", err)
	}

	return count > 0, nil
}

// MultiRoleUser describes a user holding more than one distinct role,
// produced for the excessive-permission review generator.
type MultiRoleUser struct {
	UserID    uint64
	RoleCount int
	RoleNames []string
}

// FindMultiRoleUsers returns every user holding more than one distinct role,
// with the role names sorted for deterministic output. This is a heuristic
// input, not a privilege analysis.
func (r *Resolver) FindMultiRoleUsers(ctx context.Context) ([]MultiRoleUser, error) {
	var rows []struct {
		UserID   uint64
		RoleID   uint
		RoleName string
	}

	err := r.db.WithContext(ctx).Table("user_roles").
		Select("user_roles.user_id AS user_id, roles.id AS role_id, roles.name AS role_name").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fault.Storage("failed to aggregate role assignments", err)
	}

	type roleSet struct {
		ids   map[uint]struct{}
		names []string
	}

	byUser := make(map[uint64]*roleSet)

	for _, row := range rows {
		set, ok := byUser[row.UserID]
		if !ok {
			set = &roleSet{ids: make(map[uint]struct{})}
			byUser[row.UserID] = set
		}

		// the same role held at several workspace scopes counts once
		if _, seen := set.ids[row.RoleID]; seen {
			continue
		}

		set.ids[row.RoleID] = struct{}{}
		set.names = append(set.names, row.RoleName)
	}

	var result []MultiRoleUser

	for userID, set := range byUser {
		if len(set.ids) <= 1 {
			continue
		}

		sort.Strings(set.names)
		result = append(result, MultiRoleUser{
			UserID:    userID,
			RoleCount: len(set.ids),
			RoleNames: set.names,
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })

	return result, nil
}
