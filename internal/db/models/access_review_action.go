package models

import "time"

// ReviewActionType classifies a reviewer action.
type ReviewActionType string

const (
	// ReviewActionApprove approves the reviewed access.
	ReviewActionApprove ReviewActionType = "approve"
	// ReviewActionReject rejects the reviewed access.
	ReviewActionReject ReviewActionType = "reject"
	// ReviewActionEscalate marks the item for further investigation.
	ReviewActionEscalate ReviewActionType = "escalate"
	// ReviewActionRevokeAccess removes the reviewed role assignment or resource grant.
	ReviewActionRevokeAccess ReviewActionType = "revoke_access"
	// ReviewActionModifyPermission is reserved; execution fails as unsupported.
	ReviewActionModifyPermission ReviewActionType = "modify_permission"
	// ReviewActionDeactivateUser deactivates the reviewed user account.
	ReviewActionDeactivateUser ReviewActionType = "deactivate_user"
)

// ReviewActionStatus represents the execution state of an action.
type ReviewActionStatus string

const (
	// ReviewActionStatusPending indicates the action has not been executed.
	ReviewActionStatusPending ReviewActionStatus = "pending"
	// ReviewActionStatusCompleted indicates the action executed successfully. Terminal.
	ReviewActionStatusCompleted ReviewActionStatus = "completed"
	// ReviewActionStatusFailed indicates execution failed; the error is recorded. Terminal.
	ReviewActionStatusFailed ReviewActionStatus = "failed"
)

// AccessReviewAction records a reviewer decision against a review item and,
// for remediation types, its execution outcome. An action that reached
// completed or failed is terminal; re-execution is a no-op returning the
// stored result.
type AccessReviewAction struct {
	// ID is the unique identifier for the action (ULID).
	ID string `gorm:"primaryKey;size:26"`
	// ReviewItemID is the owning review item.
	ReviewItemID string `gorm:"size:26;not null;index"`
	// Type classifies the action.
	Type ReviewActionType `gorm:"type:varchar(30);not null"`
	// Status is the execution state of the action.
	Status ReviewActionStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	// PerformedBy is the ID of the reviewer who created the action.
	PerformedBy uint64 `gorm:"not null"`
	// CompletedAt is stamped when the action reaches completed.
	CompletedAt *time.Time
	// ErrorMessage records why execution failed.
	ErrorMessage string `gorm:"size:500"`
	// Item is the owning review item (loaded via foreign key).
	Item AccessReviewItem `gorm:"foreignKey:ReviewItemID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the action was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the action was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the AccessReviewAction model.
func (AccessReviewAction) TableName() string {
	return "access_review_actions"
}

// Terminal reports whether the action reached a terminal execution state.
func (a *AccessReviewAction) Terminal() bool {
	return a.Status == ReviewActionStatusCompleted || a.Status == ReviewActionStatusFailed
}
