package models

import "time"

// UserRole represents a role assignment to a user at a given scope. A user
// may hold the same role at different workspace scopes; a nil WorkspaceID
// denotes an organization or system scoped assignment.
type UserRole struct {
	// ID is the unique identifier for the assignment.
	ID uint `gorm:"primaryKey"`
	// UserID is the ID of the user holding the role.
	UserID uint64 `gorm:"not null;index:idx_user_role_scope"`
	// RoleID is the ID of the role held.
	RoleID uint `gorm:"not null;index:idx_user_role_scope"`
	// OrganizationID is the organization the assignment belongs to (nil for system scope).
	OrganizationID *uint `gorm:"index"`
	// WorkspaceID scopes the assignment to one workspace; nil means the
	// assignment applies at the organization or system level.
	WorkspaceID *uint `gorm:"index:idx_user_role_scope"`
	// User is the associated user (loaded via foreign key).
	// When a user is deleted, their role assignments are automatically removed (CASCADE).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Role is the associated role (loaded via foreign key).
	// When a role is deleted, its assignments are automatically removed (CASCADE).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the role was assigned (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the UserRole model.
func (UserRole) TableName() string {
	return "user_roles"
}
