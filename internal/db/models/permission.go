package models

import "time"

// Permission represents a specific permission in the authorization system.
// The pair (Resource, Action) is the semantic permission key; Name is the
// canonical "resource.action" rendering of that pair and is unique.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey"`
	// Name is the unique permission identifier in resource.action format (e.g., "workflow.read").
	Name string `gorm:"unique;size:100;not null"`
	// Resource is the resource type this permission applies to (e.g., "workflow", "report").
	Resource string `gorm:"size:100;not null;uniqueIndex:idx_resource_action"`
	// Action is the action allowed on the resource (e.g., "read", "write", "delete").
	Action string `gorm:"size:50;not null;uniqueIndex:idx_resource_action"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
