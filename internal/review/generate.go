package review

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/audit"
	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/fault"
)

// DefaultDormantThresholdDays is the last-login age after which an account
// counts as dormant when no override is configured.
const DefaultDormantThresholdDays = 90

// GenerateOptions toggles the item generators. The user-role and
// resource-permission generators run unless explicitly disabled; the
// dormant-account and excessive-permission generators run only when
// explicitly enabled.
type GenerateOptions struct {
	IncludeUserRoles            *bool `json:"includeUserRoles,omitempty"`
	IncludeResourcePermissions  *bool `json:"includeResourcePermissions,omitempty"`
	IncludeDormantAccounts      bool  `json:"includeDormantAccounts,omitempty"`
	IncludeExcessivePermissions bool  `json:"includeExcessivePermissions,omitempty"`
	// DormantThresholdDays overrides the engine default when > 0.
	DormantThresholdDays int `json:"dormantThresholdDays,omitempty"`
}

func (o GenerateOptions) userRoles() bool {
	return o.IncludeUserRoles == nil || *o.IncludeUserRoles
}

func (o GenerateOptions) resourcePermissions() bool {
	return o.IncludeResourcePermissions == nil || *o.IncludeResourcePermissions
}

// GenerateReviewItems materializes review items from live access-control
// state and transitions the review into in_progress. Each enabled generator
// contributes independently; the returned count is their sum. The whole
// operation is audited once with the aggregate count.
func (e *Engine) GenerateReviewItems(
	ctx context.Context,
	reviewID string,
	opts GenerateOptions,
	actorID uint64,
) (int, error) {
	review, err := e.GetReview(ctx, reviewID)
	if err != nil {
		return 0, err
	}

	if review.Status == models.ReviewStatusCompleted || review.Status == models.ReviewStatusCancelled {
		return 0, fault.Validationf("cannot generate items for a %s review", review.Status)
	}

	var items []models.AccessReviewItem

	if opts.userRoles() {
		generated, err := e.generateUserRoleItems(ctx, review)
		if err != nil {
			return 0, err
		}

		items = append(items, generated...)
	}

	if opts.resourcePermissions() {
		generated, err := e.generateResourcePermissionItems(ctx, review)
		if err != nil {
			return 0, err
		}

		items = append(items, generated...)
	}

	if opts.IncludeDormantAccounts {
		threshold := opts.DormantThresholdDays
		if threshold <= 0 {
			threshold = e.defaultDormantThresholdDays
		}

		generated, err := e.generateDormantAccountItems(ctx, review, threshold)
		if err != nil {
			return 0, err
		}

		items = append(items, generated...)
	}

	if opts.IncludeExcessivePermissions {
		generated, err := e.generateExcessivePermissionItems(ctx, review)
		if err != nil {
			return 0, err
		}

		items = append(items, generated...)
	}

	// Insert and transition atomically so a partial generation cannot leave
	// the review in_progress with fewer items than reported.
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(items) > 0 {
			if err := tx.CreateInBatches(items, 200).Error; err != nil {
				return err
			}
		}

		review.Status = models.ReviewStatusInProgress
		if review.StartDate == nil {
			started := e.now()
			review.StartDate = &started
		}

		return tx.Save(review).Error
	})
	if err != nil {
		return 0, fault.Storage("failed to persist generated review items", err)
	}

	log.Info().
		Str("review_id", review.ID).
		Int("count", len(items)).
		Msg("generated review items")

	e.sink.Record(ctx, actorID, audit.ActionReviewGenerateItems, "access_review", review.ID, map[string]any{
		"count": len(items),
	})

	return len(items), nil
}

// generateUserRoleItems creates one item per role assignment in the review's
// scope. Organization scope covers organization-level assignments only
// (workspace_id null); workspace scope covers that workspace's assignments.
func (e *Engine) generateUserRoleItems(
	ctx context.Context,
	review *models.AccessReview,
) ([]models.AccessReviewItem, error) {
	tx := e.db.WithContext(ctx).Model(&models.UserRole{}).Preload("Role")

	switch review.Scope {
	case models.ReviewScopeOrganization:
		tx = tx.Where("organization_id = ? AND workspace_id IS NULL", review.OrganizationID)
	case models.ReviewScopeWorkspace:
		tx = tx.Where("workspace_id = ?", review.WorkspaceID)
	}

	var assignments []models.UserRole

	if err := tx.Find(&assignments).Error; err != nil {
		return nil, fault.Storage("failed to list role assignments", err)
	}

	items := make([]models.AccessReviewItem, 0, len(assignments))

	for _, assignment := range assignments {
		roleID := assignment.RoleID
		metadata, _ := json.Marshal(map[string]any{
			"role_name":       assignment.Role.Name,
			"organization_id": assignment.OrganizationID,
			"workspace_id":    assignment.WorkspaceID,
		})

		items = append(items, models.AccessReviewItem{
			ID:       models.NewID(),
			ReviewID: review.ID,
			Type:     models.ReviewItemTypeUserRole,
			Status:   models.ReviewItemStatusPending,
			UserID:   assignment.UserID,
			RoleID:   &roleID,
			Metadata: datatypes.JSON(metadata),
		})
	}

	return items, nil
}

// generateResourcePermissionItems creates one item per direct grant.
//
// Grants are not scoped by organization or workspace here even when the
// owning review is scoped; resource grants carry no tenant column in the
// schema. Flagged as a known gap rather than silently narrowed.
func (e *Engine) generateResourcePermissionItems(
	ctx context.Context,
	review *models.AccessReview,
) ([]models.AccessReviewItem, error) {
	grants, err := e.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.AccessReviewItem, 0, len(grants))

	for _, grant := range grants {
		items = append(items, models.AccessReviewItem{
			ID:           models.NewID(),
			ReviewID:     review.ID,
			Type:         models.ReviewItemTypeResourcePermission,
			Status:       models.ReviewItemStatusPending,
			UserID:       grant.UserID,
			ResourceType: grant.ResourceType,
			ResourceID:   grant.ResourceID,
			Permission:   grant.Permission,
		})
	}

	return items, nil
}

// generateDormantAccountItems flags accounts whose last successful login is
// unset or older than the threshold.
func (e *Engine) generateDormantAccountItems(
	ctx context.Context,
	review *models.AccessReview,
	thresholdDays int,
) ([]models.AccessReviewItem, error) {
	cutoff := e.now().AddDate(0, 0, -thresholdDays)

	users, err := e.directory.FindDormantUsers(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	items := make([]models.AccessReviewItem, 0, len(users))

	for _, user := range users {
		metadata, _ := json.Marshal(map[string]any{
			"username":      user.Username,
			"last_login_at": user.LastLoginAt,
		})

		items = append(items, models.AccessReviewItem{
			ID:         models.NewID(),
			ReviewID:   review.ID,
			Type:       models.ReviewItemTypeDormantAccount,
			Status:     models.ReviewItemStatusPending,
			UserID:     user.ID,
			IsRisky:    true,
			RiskReason: fmt.Sprintf("no successful login within the last %d days", thresholdDays),
			Metadata:   datatypes.JSON(metadata),
		})
	}

	return items, nil
}

// generateExcessivePermissionItems flags users holding more than one role.
// This is a review policy, not a privilege analysis: holding several roles
// is treated as worth a look, nothing more.
func (e *Engine) generateExcessivePermissionItems(
	ctx context.Context,
	review *models.AccessReview,
) ([]models.AccessReviewItem, error) {
	multiRole, err := e.resolver.FindMultiRoleUsers(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.AccessReviewItem, 0, len(multiRole))

	for _, entry := range multiRole {
		metadata, _ := json.Marshal(map[string]any{
			"role_count": entry.RoleCount,
			"role_names": entry.RoleNames,
		})

		items = append(items, models.AccessReviewItem{
			ID:         models.NewID(),
			ReviewID:   review.ID,
			Type:       models.ReviewItemTypeExcessivePermission,
			Status:     models.ReviewItemStatusPending,
			UserID:     entry.UserID,
			IsRisky:    true,
			RiskReason: fmt.Sprintf("holds %d roles: %v", entry.RoleCount, entry.RoleNames),
			Metadata:   datatypes.JSON(metadata),
		})
	}

	return items, nil
}
