// Package directory provides the user directory consumed by the review
// engine: account status lookup and mutation plus the dormancy queries used
// during item generation. Account creation and authentication live in an
// external identity service.
package directory

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/fault"
)

// Service provides user directory lookups and status mutation.
type Service struct {
	db *gorm.DB
}

// NewService creates a new directory service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.NotFoundf("user %d not found", userID)
		}

		return nil, fault.Storage("failed to load user", err)
	}

	return &user, nil
}

// GetUserStatus reports whether the user account is active.
func (s *Service) GetUserStatus(ctx context.Context, userID uint64) (bool, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}

	return user.Active, nil
}

// SetUserStatus activates or deactivates a user account.
func (s *Service) SetUserStatus(ctx context.Context, userID uint64, active bool) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("active", active)
	if result.Error != nil {
		return fault.Storage("failed to update user status", result.Error)
	}

	if result.RowsAffected == 0 {
		return fault.NotFoundf("user %d not found", userID)
	}

	return nil
}

// TouchLastLogin stamps the user's last successful authentication time.
func (s *Service) TouchLastLogin(ctx context.Context, userID uint64, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at)
	if result.Error != nil {
		return fault.Storage("failed to update last login", result.Error)
	}

	if result.RowsAffected == 0 {
		return fault.NotFoundf("user %d not found", userID)
	}

	return nil
}

// FindDormantUsers returns active users whose last login is unset or at or
// before the cutoff. Never-logged-in accounts count as dormant.
func (s *Service) FindDormantUsers(ctx context.Context, cutoff time.Time) ([]models.User, error) {
	var users []models.User

	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Where("last_login_at IS NULL OR last_login_at <= ?", cutoff).
		Find(&users).Error
	if err != nil {
		return nil, fault.Storage("failed to query dormant users", err)
	}

	return users, nil
}
