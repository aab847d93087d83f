package models

import "time"

// RoleScope represents the scope at which a role is defined.
type RoleScope string

const (
	// RoleScopeSystem indicates a platform-wide role.
	RoleScopeSystem RoleScope = "system"
	// RoleScopeOrganization indicates a role defined for one organization.
	RoleScopeOrganization RoleScope = "organization"
	// RoleScopeWorkspace indicates a role defined for one workspace.
	RoleScopeWorkspace RoleScope = "workspace"
)

// Role represents a role in the role-based access control (RBAC) system.
// Roles are collections of permissions assigned to users through UserRole
// rows. Examples include "admin", "member", and "viewer" roles.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique name of the role (e.g., "admin", "member").
	Name string `gorm:"unique;size:100;not null"`
	// Scope is the level at which the role applies (system, organization, or workspace).
	Scope RoleScope `gorm:"type:varchar(20);not null;default:'organization'"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// IsSystem indicates if this is a system role that cannot be deleted.
	IsSystem bool `gorm:"default:false"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
