package models

import "time"

// ResourcePermission stores a direct per-resource grant bypassing roles.
// Multiple rows per user/resource are possible, one per action. Rows are
// created by explicit grants or review-driven provisioning and removed by
// revoke-access remediation or resource deletion cascade.
type ResourcePermission struct {
	// ID is the unique identifier for the grant.
	ID uint `gorm:"primaryKey"`
	// UserID is the ID of the user holding the grant.
	UserID uint64 `gorm:"not null;index:idx_resource_grant,priority:1"`
	// ResourceType is the type tag of the resource (e.g., "workflow").
	ResourceType string `gorm:"size:64;not null;index:idx_resource_grant,priority:2"`
	// ResourceID identifies the concrete resource instance.
	ResourceID string `gorm:"size:128;not null;index:idx_resource_grant,priority:3"`
	// Permission is the granted action (e.g., "read", "write", "delete").
	Permission string `gorm:"size:50;not null;index:idx_resource_grant,priority:4"`
	// GrantedBy is the ID of the actor who created the grant.
	GrantedBy uint64
	// User is the associated user (loaded via foreign key).
	// When a user is deleted, their grants are automatically removed (CASCADE).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the grant was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the ResourcePermission model.
func (ResourcePermission) TableName() string {
	return "resource_permissions"
}
