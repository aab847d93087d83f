package models

import "time"

// Organization represents a tenant of the platform. The membership CRUD that
// manages organizations lives outside this service; reviews and schedules
// only reference organizations for scoping and existence checks.
type Organization struct {
	// ID is the unique identifier for the organization.
	ID uint `gorm:"primaryKey"`
	// Name is the display name of the organization.
	Name string `gorm:"size:255;not null"`
	// CreatedAt is the timestamp when the organization was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the organization was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Organization model.
func (Organization) TableName() string {
	return "organizations"
}
