package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReviewStatus represents the lifecycle state of an access review.
type ReviewStatus string

const (
	// ReviewStatusPending indicates the review was created but items have not been generated yet.
	ReviewStatusPending ReviewStatus = "pending"
	// ReviewStatusInProgress indicates review items have been generated and await decisions.
	ReviewStatusInProgress ReviewStatus = "in_progress"
	// ReviewStatusCompleted indicates the review was explicitly marked complete.
	ReviewStatusCompleted ReviewStatus = "completed"
	// ReviewStatusCancelled indicates the review was abandoned before completion.
	ReviewStatusCancelled ReviewStatus = "cancelled"
)

// ReviewType represents how the review came to exist.
type ReviewType string

const (
	// ReviewTypeAdHoc indicates the review was created manually by an administrator.
	ReviewTypeAdHoc ReviewType = "ad_hoc"
	// ReviewTypeScheduled indicates the review was materialized by a review schedule.
	ReviewTypeScheduled ReviewType = "scheduled"
)

// ReviewScope represents the boundary the review covers.
type ReviewScope string

const (
	// ReviewScopeOrganization covers organization-level role assignments.
	ReviewScopeOrganization ReviewScope = "organization"
	// ReviewScopeWorkspace covers one workspace's role assignments.
	ReviewScopeWorkspace ReviewScope = "workspace"
)

// AccessReview represents one access review campaign. A review owns a
// collection of AccessReviewItem rows; deleting a review cascades to its
// items and their actions.
//
// Lifecycle: pending at creation, in_progress when items are generated,
// completed through an explicit status update. CompletedDate is stamped
// exactly once, on the first transition into completed.
type AccessReview struct {
	// ID is the unique identifier for the review (ULID).
	ID string `gorm:"primaryKey;size:26"`
	// Name is the display name of the review.
	Name string `gorm:"size:255;not null"`
	// Status is the lifecycle state of the review.
	Status ReviewStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	// Type indicates whether the review is ad hoc or scheduled.
	Type ReviewType `gorm:"type:varchar(20);not null;default:'ad_hoc'"`
	// Scope is the boundary the review covers.
	Scope ReviewScope `gorm:"type:varchar(20);not null"`
	// OrganizationID is the organization under review (organization scope).
	OrganizationID *uint `gorm:"index"`
	// WorkspaceID is the workspace under review (workspace scope).
	WorkspaceID *uint `gorm:"index"`
	// CreatedBy is the ID of the actor who created the review.
	CreatedBy uint64 `gorm:"not null"`
	// AssignedTo is the ID of the reviewer responsible for decisions.
	AssignedTo uint64
	// StartDate is stamped when item generation runs.
	StartDate *time.Time
	// DueDate is the deadline for completing the review.
	DueDate *time.Time
	// CompletedDate is stamped once, on the first transition into completed.
	CompletedDate *time.Time
	// Settings is a free-form options bag (item generation toggles, thresholds).
	Settings datatypes.JSON
	// Items are the review items owned by this review.
	Items []AccessReviewItem `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the review was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the review was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the AccessReview model.
func (AccessReview) TableName() string {
	return "access_reviews"
}
