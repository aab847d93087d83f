// Package audit provides the append-only audit log sink invoked by every
// mutation in the authorization and review services.
package audit

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/db/models"
)

// Action name constants recorded by the core services.
const (
	ActionPermissionAssign    = "permission.assign"
	ActionPermissionRevoke    = "permission.revoke"
	ActionPermissionRevokeAll = "permission.revoke_all"

	ActionReviewCreate        = "review.create"
	ActionReviewUpdate        = "review.update"
	ActionReviewDelete        = "review.delete"
	ActionReviewGenerateItems = "review.generate_items"
	ActionReviewItemUpdate    = "review.item.update"
	ActionReviewActionCreate  = "review.action.create"
	ActionReviewActionExecute = "review.action.execute"

	ActionScheduleCreate = "schedule.create"
	ActionScheduleUpdate = "schedule.update"
	ActionScheduleDelete = "schedule.delete"
	ActionScheduleRun    = "schedule.run"

	ActionUserDeactivate = "user.deactivate"
)

// Sink is the write-only append target for audit events. Record is
// fire-and-forget from the caller's perspective: implementations must never
// fail the primary operation.
type Sink interface {
	Record(ctx context.Context, actorID uint64, action, resourceType, resourceID string, metadata map[string]any)
}

// Recorder persists audit events to the audit_events table.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates a database backed audit sink.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one audit event. Failures are logged, never propagated.
func (r *Recorder) Record(
	ctx context.Context,
	actorID uint64,
	action, resourceType, resourceID string,
	metadata map[string]any,
) {
	event := models.AuditEvent{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}

	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			log.Error().Err(err).Str("action", action).Msg("failed to marshal audit metadata")
		} else {
			event.Metadata = raw
		}
	}

	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		log.Error().Err(err).
			Str("action", action).
			Str("resource_type", resourceType).
			Str("resource_id", resourceID).
			Msg("failed to record audit event")
	}
}

// Discard is a Sink that drops every event. Used in tests and as a safe
// default when no recorder is wired.
type Discard struct{}

// Record implements Sink.
func (Discard) Record(context.Context, uint64, string, string, string, map[string]any) {}
