package models

import "time"

// Workspace represents a workspace inside an organization. Like
// organizations, workspaces are managed elsewhere and only referenced here
// for scoping reviews and role assignments.
type Workspace struct {
	// ID is the unique identifier for the workspace.
	ID uint `gorm:"primaryKey"`
	// OrganizationID is the owning organization.
	OrganizationID uint `gorm:"not null;index"`
	// Name is the display name of the workspace.
	Name string `gorm:"size:255;not null"`
	// Organization is the associated organization (loaded via foreign key).
	Organization Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the workspace was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the workspace was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Workspace model.
func (Workspace) TableName() string {
	return "workspaces"
}
