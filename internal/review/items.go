package review

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/audit"
	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/fault"
)

// GetReviewItem retrieves a review item by ID.
func (e *Engine) GetReviewItem(ctx context.Context, id string) (*models.AccessReviewItem, error) {
	var item models.AccessReviewItem

	err := e.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.NotFoundf("review item %s not found", id)
		}

		return nil, fault.Storage("failed to load review item", err)
	}

	return &item, nil
}

// ItemFilter narrows ListReviewItems. Nil fields match everything.
type ItemFilter struct {
	ReviewID *string
	Status   *models.ReviewItemStatus
	Type     *models.ReviewItemType
	UserID   *uint64
	IsRisky  *bool
}

// ListReviewItems returns items matching the filter in creation order.
func (e *Engine) ListReviewItems(ctx context.Context, filter ItemFilter) ([]models.AccessReviewItem, error) {
	tx := e.db.WithContext(ctx).Model(&models.AccessReviewItem{})

	if filter.ReviewID != nil {
		tx = tx.Where("review_id = ?", *filter.ReviewID)
	}

	if filter.Status != nil {
		tx = tx.Where("status = ?", *filter.Status)
	}

	if filter.Type != nil {
		tx = tx.Where("type = ?", *filter.Type)
	}

	if filter.UserID != nil {
		tx = tx.Where("user_id = ?", *filter.UserID)
	}

	if filter.IsRisky != nil {
		tx = tx.Where("is_risky = ?", *filter.IsRisky)
	}

	var items []models.AccessReviewItem

	if err := tx.Order("id").Find(&items).Error; err != nil {
		return nil, fault.Storage("failed to list review items", err)
	}

	return items, nil
}

// ItemPatch carries the patchable item fields. Nil fields are left untouched.
type ItemPatch struct {
	Status     *models.ReviewItemStatus
	IsRisky    *bool
	RiskReason *string
	Metadata   map[string]any
}

// UpdateReviewItem applies the patch. Whenever the status changes, the item
// is stamped with the reviewer and the review time; this is the single place
// that metadata is set, whether the change comes from a human patch or from
// a decision action.
func (e *Engine) UpdateReviewItem(
	ctx context.Context,
	id string,
	patch ItemPatch,
	actorID uint64,
) (*models.AccessReviewItem, error) {
	item, err := e.GetReviewItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil && *patch.Status != item.Status {
		item.Status = *patch.Status
		item.ReviewedBy = &actorID
		reviewedAt := e.now()
		item.ReviewedAt = &reviewedAt
	}

	if patch.IsRisky != nil {
		item.IsRisky = *patch.IsRisky
	}

	if patch.RiskReason != nil {
		item.RiskReason = *patch.RiskReason
	}

	if patch.Metadata != nil {
		raw, err := json.Marshal(patch.Metadata)
		if err != nil {
			return nil, fault.Internal("failed to encode item metadata", err)
		}

		item.Metadata = datatypes.JSON(raw)
	}

	if err := e.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, fault.Storage("failed to update review item", err)
	}

	e.sink.Record(ctx, actorID, audit.ActionReviewItemUpdate, "access_review_item", item.ID, map[string]any{
		"status": item.Status,
	})

	return item, nil
}
