package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReviewItemType classifies what kind of access a review item covers.
type ReviewItemType string

const (
	// ReviewItemTypeUserRole covers one role assignment.
	ReviewItemTypeUserRole ReviewItemType = "user_role"
	// ReviewItemTypeResourcePermission covers one direct resource grant.
	ReviewItemTypeResourcePermission ReviewItemType = "resource_permission"
	// ReviewItemTypeDormantAccount flags an account without recent logins.
	ReviewItemTypeDormantAccount ReviewItemType = "dormant_account"
	// ReviewItemTypeExcessivePermission flags a user holding multiple roles.
	ReviewItemTypeExcessivePermission ReviewItemType = "excessive_permission"
)

// ReviewItemStatus represents the reviewer decision state of an item.
type ReviewItemStatus string

const (
	// ReviewItemStatusPending indicates no decision has been made yet.
	ReviewItemStatusPending ReviewItemStatus = "pending"
	// ReviewItemStatusApproved indicates the access was approved.
	ReviewItemStatusApproved ReviewItemStatus = "approved"
	// ReviewItemStatusRejected indicates the access was rejected.
	ReviewItemStatusRejected ReviewItemStatus = "rejected"
	// ReviewItemStatusNeedsInvestigation indicates the item was escalated.
	ReviewItemStatusNeedsInvestigation ReviewItemStatus = "needs_investigation"
)

// AccessReviewItem is one unit of access requiring a reviewer decision,
// generated from live authorization and account state. Items are created in
// bulk by item generation and never outside that path.
type AccessReviewItem struct {
	// ID is the unique identifier for the item (ULID).
	ID string `gorm:"primaryKey;size:26"`
	// ReviewID is the owning review.
	ReviewID string `gorm:"size:26;not null;index"`
	// Type classifies what kind of access this item covers.
	Type ReviewItemType `gorm:"type:varchar(30);not null"`
	// Status is the reviewer decision state.
	Status ReviewItemStatus `gorm:"type:varchar(30);not null;default:'pending';index"`
	// UserID is the user whose access is under review.
	UserID uint64 `gorm:"not null;index"`
	// RoleID is set for user_role items.
	RoleID *uint
	// ResourceType is set for resource_permission items.
	ResourceType string `gorm:"size:64"`
	// ResourceID is set for resource_permission items.
	ResourceID string `gorm:"size:128"`
	// Permission is the granted action for resource_permission items.
	Permission string `gorm:"size:50"`
	// IsRisky marks items produced by a risk heuristic.
	IsRisky bool `gorm:"default:false"`
	// RiskReason explains why the item was flagged as risky.
	RiskReason string `gorm:"size:255"`
	// Metadata carries generator context (role name, scope, counts).
	Metadata datatypes.JSON
	// ReviewedBy is set when the status changes, never at creation.
	ReviewedBy *uint64
	// ReviewedAt is set when the status changes, never at creation.
	ReviewedAt *time.Time
	// Review is the owning review (loaded via foreign key).
	Review AccessReview `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
	// Actions are the reviewer actions recorded against this item.
	Actions []AccessReviewAction `gorm:"foreignKey:ReviewItemID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the item was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the item was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the AccessReviewItem model.
func (AccessReviewItem) TableName() string {
	return "access_review_items"
}
