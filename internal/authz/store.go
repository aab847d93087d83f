package authz

import (
	"context"

	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/fault"
)

const grantTupleQuery = "user_id = ? AND resource_type = ? AND resource_id = ? AND permission = ?"

// Store holds direct per-resource grants, independent of roles.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new resource permission store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// HasGrant reports whether a grant exists for the exact tuple.
func (s *Store) HasGrant(
	ctx context.Context,
	userID uint64,
	resourceType, resourceID, permission string,
) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&models.ResourcePermission{}).
		Where(grantTupleQuery, userID, resourceType, resourceID, permission).
		Count(&count).Error
	if err != nil {
		return false, fault.Storage("failed to check resource grant", err)
	}

	return count > 0, nil
}

// Grant creates a direct grant for the tuple. Granting an existing tuple is
// a no-op returning the stored row.
func (s *Store) Grant(
	ctx context.Context,
	userID uint64,
	resourceType, resourceID, permission string,
	grantedBy uint64,
) (*models.ResourcePermission, error) {
	grant := models.ResourcePermission{
		UserID:       userID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Permission:   permission,
		GrantedBy:    grantedBy,
	}

	err := s.db.WithContext(ctx).
		Where(grantTupleQuery, userID, resourceType, resourceID, permission).
		FirstOrCreate(&grant).Error
	if err != nil {
		return nil, fault.Storage("failed to create resource grant", err)
	}

	return &grant, nil
}

// Revoke deletes the grant for the exact tuple. Revoking an absent tuple is
// a no-op, not an error, so remediation stays idempotent.
func (s *Store) Revoke(
	ctx context.Context,
	userID uint64,
	resourceType, resourceID, permission string,
) error {
	err := s.db.WithContext(ctx).
		Where(grantTupleQuery, userID, resourceType, resourceID, permission).
		Delete(&models.ResourcePermission{}).Error
	if err != nil {
		return fault.Storage("failed to revoke resource grant", err)
	}

	return nil
}

// ListForUser returns every direct grant held by the user.
func (s *Store) ListForUser(ctx context.Context, userID uint64) ([]models.ResourcePermission, error) {
	var grants []models.ResourcePermission

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&grants).Error
	if err != nil {
		return nil, fault.Storage("failed to list resource grants", err)
	}

	return grants, nil
}

// ListForUserResource returns the user's grants on one concrete resource.
func (s *Store) ListForUserResource(
	ctx context.Context,
	userID uint64,
	resourceType, resourceID string,
) ([]models.ResourcePermission, error) {
	var grants []models.ResourcePermission

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND resource_type = ? AND resource_id = ?", userID, resourceType, resourceID).
		Find(&grants).Error
	if err != nil {
		return nil, fault.Storage("failed to list resource grants", err)
	}

	return grants, nil
}

// ListAll returns every direct grant. Consumed by review item generation.
func (s *Store) ListAll(ctx context.Context) ([]models.ResourcePermission, error) {
	var grants []models.ResourcePermission

	err := s.db.WithContext(ctx).Find(&grants).Error
	if err != nil {
		return nil, fault.Storage("failed to list resource grants", err)
	}

	return grants, nil
}

// UserIDsForResource returns the distinct users holding any grant on the
// resource. Callers that are about to delete the rows must call this first;
// the delete itself loses the information.
func (s *Store) UserIDsForResource(
	ctx context.Context,
	resourceType, resourceID string,
) ([]uint64, error) {
	var userIDs []uint64

	err := s.db.WithContext(ctx).Model(&models.ResourcePermission{}).
		Distinct("user_id").
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fault.Storage("failed to list users for resource", err)
	}

	return userIDs, nil
}

// DeleteAllForResource deletes every grant on the resource and returns the
// number of removed rows.
func (s *Store) DeleteAllForResource(
	ctx context.Context,
	resourceType, resourceID string,
) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Delete(&models.ResourcePermission{})
	if result.Error != nil {
		return 0, fault.Storage("failed to delete resource grants", result.Error)
	}

	return result.RowsAffected, nil
}
