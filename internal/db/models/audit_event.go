package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditEvent is one append-only audit log entry. Rows are only ever
// inserted; there is no update or delete path.
type AuditEvent struct {
	// ID is the unique identifier for the event.
	ID uint64 `gorm:"primaryKey"`
	// ActorID is the ID of the user or system actor who performed the operation.
	ActorID uint64 `gorm:"not null;index"`
	// Action names the operation (e.g., "permission.assign", "review.generate_items").
	Action string `gorm:"size:100;not null;index"`
	// ResourceType is the type of entity the operation touched.
	ResourceType string `gorm:"size:64;not null"`
	// ResourceID identifies the touched entity, if any.
	ResourceID string `gorm:"size:128"`
	// Metadata carries operation-specific context.
	Metadata datatypes.JSON
	// CreatedAt is the timestamp when the event was recorded (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the AuditEvent model.
func (AuditEvent) TableName() string {
	return "audit_events"
}
