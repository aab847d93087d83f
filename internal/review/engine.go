// Package review implements the access review lifecycle: review campaigns,
// item generation from live authorization state, reviewer decisions, and
// remediation execution, plus the recurring schedule resolver.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/audit"
	"github.com/accessdesk/accessdesk/internal/authz"
	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/directory"
	"github.com/accessdesk/accessdesk/internal/fault"
)

// Engine orchestrates the review lifecycle. All collaborators are injected
// once at construction; there is no lazy initialization.
type Engine struct {
	db        *gorm.DB
	authority *authz.Authority
	resolver  *authz.Resolver
	store     *authz.Store
	directory *directory.Service
	sink      audit.Sink

	// now is the clock; injectable for deterministic tests.
	now func() time.Time

	// defaultDormantThresholdDays applies when item generation does not
	// override the dormancy cutoff.
	defaultDormantThresholdDays int
}

// NewEngine creates the review engine over already-established collaborators.
func NewEngine(
	db *gorm.DB,
	authority *authz.Authority,
	resolver *authz.Resolver,
	store *authz.Store,
	dir *directory.Service,
	sink audit.Sink,
	dormantThresholdDays int,
) *Engine {
	if sink == nil {
		sink = audit.Discard{}
	}

	if dormantThresholdDays <= 0 {
		dormantThresholdDays = DefaultDormantThresholdDays
	}

	return &Engine{
		db:                          db,
		authority:                   authority,
		resolver:                    resolver,
		store:                       store,
		directory:                   dir,
		sink:                        sink,
		now:                         time.Now,
		defaultDormantThresholdDays: dormantThresholdDays,
	}
}

// CreateReviewInput carries the fields for creating a review.
type CreateReviewInput struct {
	Name           string
	Type           models.ReviewType
	Scope          models.ReviewScope
	OrganizationID *uint
	WorkspaceID    *uint
	CreatedBy      uint64
	AssignedTo     uint64
	DueDate        *time.Time
	Settings       *GenerateOptions
}

// CreateReview creates a new review in the pending state.
func (e *Engine) CreateReview(ctx context.Context, input CreateReviewInput) (*models.AccessReview, error) {
	if input.Name == "" {
		return nil, fault.Validationf("review name is required")
	}

	if input.CreatedBy == 0 {
		return nil, fault.Validationf("createdBy is required")
	}

	if input.Type == "" {
		input.Type = models.ReviewTypeAdHoc
	}

	switch input.Scope {
	case models.ReviewScopeOrganization:
		if input.OrganizationID == nil {
			return nil, fault.Validationf("organizationId is required for organization scope")
		}

		if err := e.organizationExists(ctx, *input.OrganizationID); err != nil {
			return nil, err
		}
	case models.ReviewScopeWorkspace:
		if input.WorkspaceID == nil {
			return nil, fault.Validationf("workspaceId is required for workspace scope")
		}

		if err := e.workspaceExists(ctx, *input.WorkspaceID); err != nil {
			return nil, err
		}
	default:
		return nil, fault.Validationf("scope must be organization or workspace")
	}

	review := models.AccessReview{
		ID:             models.NewID(),
		Name:           input.Name,
		Status:         models.ReviewStatusPending,
		Type:           input.Type,
		Scope:          input.Scope,
		OrganizationID: input.OrganizationID,
		WorkspaceID:    input.WorkspaceID,
		CreatedBy:      input.CreatedBy,
		AssignedTo:     input.AssignedTo,
		DueDate:        input.DueDate,
	}

	if input.Settings != nil {
		raw, err := json.Marshal(input.Settings)
		if err != nil {
			return nil, fault.Internal("failed to encode review settings", err)
		}

		review.Settings = datatypes.JSON(raw)
	}

	if err := e.db.WithContext(ctx).Create(&review).Error; err != nil {
		return nil, fault.Storage("failed to create review", err)
	}

	e.sink.Record(ctx, input.CreatedBy, audit.ActionReviewCreate, "access_review", review.ID, map[string]any{
		"name":  review.Name,
		"type":  review.Type,
		"scope": review.Scope,
	})

	return &review, nil
}

// GetReview retrieves a review by ID.
func (e *Engine) GetReview(ctx context.Context, id string) (*models.AccessReview, error) {
	var review models.AccessReview

	err := e.db.WithContext(ctx).First(&review, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.NotFoundf("review %s not found", id)
		}

		return nil, fault.Storage("failed to load review", err)
	}

	return &review, nil
}

// ReviewFilter narrows ListReviews. Nil fields match everything.
type ReviewFilter struct {
	Status         *models.ReviewStatus
	Type           *models.ReviewType
	Scope          *models.ReviewScope
	OrganizationID *uint
	WorkspaceID    *uint
	AssignedTo     *uint64
}

// ListReviews returns reviews matching the filter, newest first.
func (e *Engine) ListReviews(ctx context.Context, filter ReviewFilter) ([]models.AccessReview, error) {
	tx := e.db.WithContext(ctx).Model(&models.AccessReview{})

	if filter.Status != nil {
		tx = tx.Where("status = ?", *filter.Status)
	}

	if filter.Type != nil {
		tx = tx.Where("type = ?", *filter.Type)
	}

	if filter.Scope != nil {
		tx = tx.Where("scope = ?", *filter.Scope)
	}

	if filter.OrganizationID != nil {
		tx = tx.Where("organization_id = ?", *filter.OrganizationID)
	}

	if filter.WorkspaceID != nil {
		tx = tx.Where("workspace_id = ?", *filter.WorkspaceID)
	}

	if filter.AssignedTo != nil {
		tx = tx.Where("assigned_to = ?", *filter.AssignedTo)
	}

	var reviews []models.AccessReview

	if err := tx.Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fault.Storage("failed to list reviews", err)
	}

	return reviews, nil
}

// UpdateReviewInput carries the patchable review fields. Nil fields are left
// untouched.
type UpdateReviewInput struct {
	Name       *string
	Status     *models.ReviewStatus
	AssignedTo *uint64
	DueDate    *time.Time
}

// UpdateReview applies the patch. CompletedDate is stamped exactly once, on
// the first transition into completed; setting completed again later must
// not re-stamp it.
func (e *Engine) UpdateReview(
	ctx context.Context,
	id string,
	patch UpdateReviewInput,
	actorID uint64,
) (*models.AccessReview, error) {
	review, err := e.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		review.Name = *patch.Name
	}

	if patch.AssignedTo != nil {
		review.AssignedTo = *patch.AssignedTo
	}

	if patch.DueDate != nil {
		review.DueDate = patch.DueDate
	}

	if patch.Status != nil {
		if *patch.Status == models.ReviewStatusCompleted && review.Status != models.ReviewStatusCompleted {
			completed := e.now()
			review.CompletedDate = &completed
		}

		review.Status = *patch.Status
	}

	if err := e.db.WithContext(ctx).Save(review).Error; err != nil {
		return nil, fault.Storage("failed to update review", err)
	}

	e.sink.Record(ctx, actorID, audit.ActionReviewUpdate, "access_review", review.ID, map[string]any{
		"status": review.Status,
	})

	return review, nil
}

// DeleteReview removes the review with its items and their actions. The
// entities are owned, not shared, so the cascade is explicit and atomic.
func (e *Engine) DeleteReview(ctx context.Context, id string, actorID uint64) error {
	if _, err := e.GetReview(ctx, id); err != nil {
		return err
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(
			"review_item_id IN (?)",
			tx.Model(&models.AccessReviewItem{}).Select("id").Where("review_id = ?", id),
		).Delete(&models.AccessReviewAction{}).Error; err != nil {
			return err
		}

		if err := tx.Where("review_id = ?", id).Delete(&models.AccessReviewItem{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.AccessReview{}, "id = ?", id).Error
	})
	if err != nil {
		return fault.Storage("failed to delete review", err)
	}

	e.sink.Record(ctx, actorID, audit.ActionReviewDelete, "access_review", id, nil)

	return nil
}

func (e *Engine) organizationExists(ctx context.Context, id uint) error {
	var count int64

	err := e.db.WithContext(ctx).Model(&models.Organization{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return fault.Storage("failed to check organization", err)
	}

	if count == 0 {
		return fault.NotFoundf("organization %d not found", id)
	}

	return nil
}

func (e *Engine) workspaceExists(ctx context.Context, id uint) error {
	var count int64

	err := e.db.WithContext(ctx).Model(&models.Workspace{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return fault.Storage("failed to check workspace", err)
	}

	if count == 0 {
		return fault.NotFoundf("workspace %d not found", id)
	}

	return nil
}
