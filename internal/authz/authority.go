package authz

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/audit"
	"github.com/accessdesk/accessdesk/internal/authz/cache"
	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/fault"
)

// Authority composes the resolver and the resource permission store behind
// the permission cache. It is the single source of truth callers use to
// authorize actions; every mutation it performs invalidates the affected
// cache entries and records an audit event.
type Authority struct {
	db       *gorm.DB
	resolver *Resolver
	store    *Store
	cache    cache.Cache
	sink     audit.Sink
}

// NewAuthority creates the permission authority over already-established
// collaborators.
func NewAuthority(db *gorm.DB, resolver *Resolver, store *Store, c cache.Cache, sink audit.Sink) *Authority {
	if sink == nil {
		sink = audit.Discard{}
	}

	return &Authority{
		db:       db,
		resolver: resolver,
		store:    store,
		cache:    c,
		sink:     sink,
	}
}

// HasResourcePermission reports whether the user may perform action on the
// concrete resource. Direct grants and role grants are OR-ed; the direct
// grant is checked first as a performance choice, the result is identical
// either way. The outcome is cached with the TTL matching its truth value.
func (a *Authority) HasResourcePermission(
	ctx context.Context,
	userID uint64,
	resourceType, resourceID, action string,
) (bool, error) {
	key := cache.Key{
		UserID:       userID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Permission:   action,
	}

	if value, ok := a.cache.Get(ctx, key); ok {
		return value, nil
	}

	direct, err := a.store.HasGrant(ctx, userID, resourceType, resourceID, action)
	if err != nil {
		return false, err
	}

	if direct {
		a.cache.Put(ctx, key, true)

		return true, nil
	}

	roleDerived, err := a.resolver.HasPermission(ctx, userID, resourceType, action)
	if err != nil {
		return false, err
	}

	a.cache.Put(ctx, key, roleDerived)

	return roleDerived, nil
}

// BatchCheckPermissions tests several actions on one resource with a single
// grant listing and a single resolver pass. The batch path does not write
// the single-check cache. On a storage failure the whole batch fails closed
// and denies every action.
func (a *Authority) BatchCheckPermissions(
	ctx context.Context,
	userID uint64,
	resourceType, resourceID string,
	actions []string,
) map[string]bool {
	result := make(map[string]bool, len(actions))
	for _, action := range actions {
		result[action] = false
	}

	grants, err := a.store.ListForUserResource(ctx, userID, resourceType, resourceID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).
			Msg("batch permission check failed, denying all actions")

		return result
	}

	rolePerms, err := a.resolver.GetUserPermissionsForResourceType(ctx, userID, resourceType)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).
			Msg("batch permission check failed, denying all actions")

		return result
	}

	allowed := make(map[string]struct{}, len(grants)+len(rolePerms))
	for _, grant := range grants {
		allowed[grant.Permission] = struct{}{}
	}

	for _, perm := range rolePerms {
		allowed[perm.Action] = struct{}{}
	}

	for _, action := range actions {
		_, ok := allowed[action]
		result[action] = ok
	}

	return result
}

// AssignPermission creates a direct grant and invalidates the user's full
// permission cache.
func (a *Authority) AssignPermission(
	ctx context.Context,
	actorID, userID uint64,
	resourceType, resourceID, action string,
) (*models.ResourcePermission, error) {
	if resourceType == "" || resourceID == "" || action == "" {
		return nil, fault.Validationf("resourceType, resourceId and permission are required")
	}

	grant, err := a.store.Grant(ctx, userID, resourceType, resourceID, action, actorID)
	if err != nil {
		return nil, err
	}

	a.cache.InvalidateUser(ctx, userID)

	a.sink.Record(ctx, actorID, audit.ActionPermissionAssign, resourceType, resourceID, map[string]any{
		"user_id":    userID,
		"permission": action,
	})

	return grant, nil
}

// RemovePermission deletes the direct grant for the exact tuple and
// invalidates the user's full permission cache.
func (a *Authority) RemovePermission(
	ctx context.Context,
	actorID, userID uint64,
	resourceType, resourceID, action string,
) error {
	if err := a.store.Revoke(ctx, userID, resourceType, resourceID, action); err != nil {
		return err
	}

	a.cache.InvalidateUser(ctx, userID)

	a.sink.Record(ctx, actorID, audit.ActionPermissionRevoke, resourceType, resourceID, map[string]any{
		"user_id":    userID,
		"permission": action,
	})

	return nil
}

// RemoveAllPermissionsForResource deletes every grant on the resource, used
// by resource deletion cascades. Affected users are enumerated before the
// delete, since the delete itself loses that information, and each of them
// has their full permission cache invalidated.
func (a *Authority) RemoveAllPermissionsForResource(
	ctx context.Context,
	actorID uint64,
	resourceType, resourceID string,
) (int64, error) {
	userIDs, err := a.store.UserIDsForResource(ctx, resourceType, resourceID)
	if err != nil {
		return 0, err
	}

	deleted, err := a.store.DeleteAllForResource(ctx, resourceType, resourceID)
	if err != nil {
		return 0, err
	}

	for _, userID := range userIDs {
		a.cache.InvalidateUser(ctx, userID)
	}

	a.cache.InvalidateResource(ctx, resourceType, resourceID)

	a.sink.Record(ctx, actorID, audit.ActionPermissionRevokeAll, resourceType, resourceID, map[string]any{
		"deleted_grants": deleted,
		"affected_users": len(userIDs),
	})

	return deleted, nil
}

// RevokeRole deletes the user's assignment rows for the role across all
// scopes. Role removal is a broader relation than any single resource tuple,
// so the user's full permission cache is invalidated. Revoking an absent
// assignment is a no-op.
func (a *Authority) RevokeRole(ctx context.Context, actorID, userID uint64, roleID uint) error {
	err := a.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.UserRole{}).Error
	if err != nil {
		return fault.Storage("failed to revoke role assignment", err)
	}

	a.cache.InvalidateUser(ctx, userID)

	a.sink.Record(ctx, actorID, audit.ActionPermissionRevoke, "role", strconv.FormatUint(uint64(roleID), 10), map[string]any{
		"user_id": userID,
		"role_id": roleID,
	})

	return nil
}
