package review

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/audit"
	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/fault"
)

// decisionTransitions maps decision action types to the item status they
// deterministically produce. Other action types leave the item untouched.
var decisionTransitions = map[models.ReviewActionType]models.ReviewItemStatus{ //nolint:gochecknoglobals
	models.ReviewActionApprove:  models.ReviewItemStatusApproved,
	models.ReviewActionReject:   models.ReviewItemStatusRejected,
	models.ReviewActionEscalate: models.ReviewItemStatusNeedsInvestigation,
}

func validActionType(t models.ReviewActionType) bool {
	switch t {
	case models.ReviewActionApprove,
		models.ReviewActionReject,
		models.ReviewActionEscalate,
		models.ReviewActionRevokeAccess,
		models.ReviewActionModifyPermission,
		models.ReviewActionDeactivateUser:
		return true
	default:
		return false
	}
}

// ActionInput carries the fields for recording a reviewer action.
type ActionInput struct {
	ReviewItemID string
	Type         models.ReviewActionType
	// Status defaults to pending. A non-pending status marks the action as
	// immediately executable and triggers synchronous execution.
	Status      models.ReviewActionStatus
	PerformedBy uint64
}

// CreateReviewAction records a reviewer decision. The action row is saved
// before the item transition and before any execution, so a caller always
// observes the action recorded even if what follows fails.
func (e *Engine) CreateReviewAction(
	ctx context.Context,
	input ActionInput,
) (*models.AccessReviewAction, error) {
	if input.ReviewItemID == "" {
		return nil, fault.Validationf("reviewItemId is required")
	}

	if input.Type == "" {
		return nil, fault.Validationf("action type is required")
	}

	if !validActionType(input.Type) {
		return nil, fault.Validationf("unknown action type %q", input.Type)
	}

	if input.PerformedBy == 0 {
		return nil, fault.Validationf("performedBy is required")
	}

	if _, err := e.GetReviewItem(ctx, input.ReviewItemID); err != nil {
		return nil, err
	}

	// The row is always persisted pending; a requested non-pending status
	// only marks the action for immediate execution, which is what moves it
	// into a terminal state.
	action := models.AccessReviewAction{
		ID:           models.NewID(),
		ReviewItemID: input.ReviewItemID,
		Type:         input.Type,
		Status:       models.ReviewActionStatusPending,
		PerformedBy:  input.PerformedBy,
	}

	if err := e.db.WithContext(ctx).Create(&action).Error; err != nil {
		return nil, fault.Storage("failed to create review action", err)
	}

	e.sink.Record(ctx, input.PerformedBy, audit.ActionReviewActionCreate, "access_review_action", action.ID, map[string]any{
		"item_id": input.ReviewItemID,
		"type":    input.Type,
	})

	if target, ok := decisionTransitions[input.Type]; ok {
		if _, err := e.UpdateReviewItem(ctx, input.ReviewItemID, ItemPatch{Status: &target}, input.PerformedBy); err != nil {
			return &action, err
		}
	}

	if input.Status != "" && input.Status != models.ReviewActionStatusPending {
		return e.ExecuteReviewAction(ctx, action.ID)
	}

	return &action, nil
}

// GetReviewAction retrieves an action by ID.
func (e *Engine) GetReviewAction(ctx context.Context, id string) (*models.AccessReviewAction, error) {
	var action models.AccessReviewAction

	err := e.db.WithContext(ctx).First(&action, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.NotFoundf("review action %s not found", id)
		}

		return nil, fault.Storage("failed to load review action", err)
	}

	return &action, nil
}

// ExecuteReviewAction executes the remediation an action calls for and
// returns the action in a terminal state. Execution is at-most-once: a
// completed or failed action is returned as stored without re-applying side
// effects. A remediation failure is recorded into the failed state and
// returned with a nil error; the caller must inspect the returned status.
// Thrown errors are reserved for lookup and persistence failures.
func (e *Engine) ExecuteReviewAction(ctx context.Context, id string) (*models.AccessReviewAction, error) {
	action, err := e.GetReviewAction(ctx, id)
	if err != nil {
		return nil, err
	}

	if action.Terminal() {
		return action, nil
	}

	item, err := e.GetReviewItem(ctx, action.ReviewItemID)
	if err != nil {
		return nil, err
	}

	execErr := e.dispatch(ctx, action, item)
	if execErr != nil {
		action.Status = models.ReviewActionStatusFailed
		action.ErrorMessage = execErr.Error()

		log.Warn().Err(execErr).
			Str("action_id", action.ID).
			Str("type", string(action.Type)).
			Msg("review action execution failed")
	} else {
		action.Status = models.ReviewActionStatusCompleted
		completedAt := e.now()
		action.CompletedAt = &completedAt
	}

	if err := e.db.WithContext(ctx).Save(action).Error; err != nil {
		return nil, fault.Storage("failed to persist action result", err)
	}

	e.sink.Record(ctx, action.PerformedBy, audit.ActionReviewActionExecute, "access_review_action", action.ID, map[string]any{
		"type":   action.Type,
		"status": action.Status,
	})

	return action, nil
}

// dispatch applies the side effect of one action type against the live
// authorization state.
func (e *Engine) dispatch(
	ctx context.Context,
	action *models.AccessReviewAction,
	item *models.AccessReviewItem,
) error {
	switch action.Type {
	case models.ReviewActionRevokeAccess:
		return e.revokeAccess(ctx, action, item)
	case models.ReviewActionModifyPermission:
		return fault.Unsupportedf("modify_permission is not implemented")
	case models.ReviewActionDeactivateUser:
		if err := e.directory.SetUserStatus(ctx, item.UserID, false); err != nil {
			return err
		}

		e.sink.Record(ctx, action.PerformedBy, audit.ActionUserDeactivate, "user", "", map[string]any{
			"user_id": item.UserID,
		})

		return nil
	default:
		// decision types carry no system side effect beyond the item
		// transition already applied at creation
		return nil
	}
}

// revokeAccess removes the reviewed access. The deletes are idempotent, so
// revoking access that is already gone is a no-op rather than an error.
func (e *Engine) revokeAccess(
	ctx context.Context,
	action *models.AccessReviewAction,
	item *models.AccessReviewItem,
) error {
	switch {
	case item.Type == models.ReviewItemTypeUserRole && item.RoleID != nil:
		return e.authority.RevokeRole(ctx, action.PerformedBy, item.UserID, *item.RoleID)
	case item.Type == models.ReviewItemTypeResourcePermission && item.ResourceID != "":
		return e.authority.RemovePermission(
			ctx,
			action.PerformedBy,
			item.UserID,
			item.ResourceType,
			item.ResourceID,
			item.Permission,
		)
	default:
		return nil
	}
}
