package review

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/audit"
	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/fault"
)

// ScheduleInput carries the fields for creating a review schedule.
type ScheduleInput struct {
	Name           string
	Frequency      models.ReviewFrequency
	Scope          models.ReviewScope
	OrganizationID *uint
	WorkspaceID    *uint
	CreatedBy      uint64
	AssignedTo     uint64
	DurationDays   int
	Settings       *GenerateOptions
}

// CreateSchedule creates an active schedule with its first run one frequency
// interval from now.
func (e *Engine) CreateSchedule(ctx context.Context, input ScheduleInput) (*models.AccessReviewSchedule, error) {
	if input.Name == "" {
		return nil, fault.Validationf("schedule name is required")
	}

	if input.CreatedBy == 0 {
		return nil, fault.Validationf("createdBy is required")
	}

	if _, err := frequencyInterval(input.Frequency); err != nil {
		return nil, err
	}

	switch input.Scope {
	case models.ReviewScopeOrganization:
		if input.OrganizationID == nil {
			return nil, fault.Validationf("organizationId is required for organization scope")
		}

		if err := e.organizationExists(ctx, *input.OrganizationID); err != nil {
			return nil, err
		}
	case models.ReviewScopeWorkspace:
		if input.WorkspaceID == nil {
			return nil, fault.Validationf("workspaceId is required for workspace scope")
		}

		if err := e.workspaceExists(ctx, *input.WorkspaceID); err != nil {
			return nil, err
		}
	default:
		return nil, fault.Validationf("scope must be organization or workspace")
	}

	if input.DurationDays <= 0 {
		input.DurationDays = 14
	}

	nextRun := advance(e.now(), input.Frequency)

	schedule := models.AccessReviewSchedule{
		ID:             models.NewID(),
		Name:           input.Name,
		Frequency:      input.Frequency,
		Status:         models.ScheduleStatusActive,
		Scope:          input.Scope,
		OrganizationID: input.OrganizationID,
		WorkspaceID:    input.WorkspaceID,
		CreatedBy:      input.CreatedBy,
		AssignedTo:     input.AssignedTo,
		DurationDays:   input.DurationDays,
		NextRunAt:      &nextRun,
	}

	if input.Settings != nil {
		raw, err := json.Marshal(input.Settings)
		if err != nil {
			return nil, fault.Internal("failed to encode schedule settings", err)
		}

		schedule.Settings = datatypes.JSON(raw)
	}

	if err := e.db.WithContext(ctx).Create(&schedule).Error; err != nil {
		return nil, fault.Storage("failed to create schedule", err)
	}

	e.sink.Record(ctx, input.CreatedBy, audit.ActionScheduleCreate, "access_review_schedule", schedule.ID, map[string]any{
		"frequency": schedule.Frequency,
	})

	return &schedule, nil
}

// GetSchedule retrieves a schedule by ID.
func (e *Engine) GetSchedule(ctx context.Context, id string) (*models.AccessReviewSchedule, error) {
	var schedule models.AccessReviewSchedule

	err := e.db.WithContext(ctx).First(&schedule, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.NotFoundf("schedule %s not found", id)
		}

		return nil, fault.Storage("failed to load schedule", err)
	}

	return &schedule, nil
}

// ListSchedules returns every schedule, newest first.
func (e *Engine) ListSchedules(ctx context.Context) ([]models.AccessReviewSchedule, error) {
	var schedules []models.AccessReviewSchedule

	err := e.db.WithContext(ctx).Order("created_at DESC").Find(&schedules).Error
	if err != nil {
		return nil, fault.Storage("failed to list schedules", err)
	}

	return schedules, nil
}

// SchedulePatch carries the patchable schedule fields.
type SchedulePatch struct {
	Name         *string
	Status       *models.ScheduleStatus
	Frequency    *models.ReviewFrequency
	AssignedTo   *uint64
	DurationDays *int
}

// UpdateSchedule applies the patch. Changing the frequency recomputes
// NextRunAt from now.
func (e *Engine) UpdateSchedule(
	ctx context.Context,
	id string,
	patch SchedulePatch,
	actorID uint64,
) (*models.AccessReviewSchedule, error) {
	schedule, err := e.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		schedule.Name = *patch.Name
	}

	if patch.Status != nil {
		schedule.Status = *patch.Status
	}

	if patch.Frequency != nil {
		if _, err := frequencyInterval(*patch.Frequency); err != nil {
			return nil, err
		}

		schedule.Frequency = *patch.Frequency
		nextRun := advance(e.now(), schedule.Frequency)
		schedule.NextRunAt = &nextRun
	}

	if patch.AssignedTo != nil {
		schedule.AssignedTo = *patch.AssignedTo
	}

	if patch.DurationDays != nil && *patch.DurationDays > 0 {
		schedule.DurationDays = *patch.DurationDays
	}

	if err := e.db.WithContext(ctx).Save(schedule).Error; err != nil {
		return nil, fault.Storage("failed to update schedule", err)
	}

	e.sink.Record(ctx, actorID, audit.ActionScheduleUpdate, "access_review_schedule", schedule.ID, nil)

	return schedule, nil
}

// DeleteSchedule removes a schedule. Reviews already materialized from it
// are kept.
func (e *Engine) DeleteSchedule(ctx context.Context, id string, actorID uint64) error {
	result := e.db.WithContext(ctx).Delete(&models.AccessReviewSchedule{}, "id = ?", id)
	if result.Error != nil {
		return fault.Storage("failed to delete schedule", result.Error)
	}

	if result.RowsAffected == 0 {
		return fault.NotFoundf("schedule %s not found", id)
	}

	e.sink.Record(ctx, actorID, audit.ActionScheduleDelete, "access_review_schedule", id, nil)

	return nil
}

// RunScheduledReviews materializes a review for every due schedule and
// returns how many were created. A schedule that fails is logged and
// skipped; it never prevents other due schedules from running.
//
// There is no claim step on NextRunAt, so overlapping invocations across
// instances can materialize duplicate reviews for the same due schedule.
// The cadence makes the window small but the semantics are at-least-once.
func (e *Engine) RunScheduledReviews(ctx context.Context) (int, error) {
	now := e.now()

	var due []models.AccessReviewSchedule

	err := e.db.WithContext(ctx).
		Where("status = ? AND next_run_at IS NOT NULL AND next_run_at <= ?", models.ScheduleStatusActive, now).
		Find(&due).Error
	if err != nil {
		return 0, fault.Storage("failed to query due schedules", err)
	}

	created := 0

	for i := range due {
		schedule := &due[i]

		if err := e.runSchedule(ctx, schedule, now); err != nil {
			log.Error().Err(err).
				Str("schedule_id", schedule.ID).
				Str("schedule_name", schedule.Name).
				Msg("scheduled review run failed")

			continue
		}

		created++
	}

	return created, nil
}

// runSchedule materializes one review from the schedule and advances its
// run markers.
func (e *Engine) runSchedule(ctx context.Context, schedule *models.AccessReviewSchedule, now time.Time) error {
	var opts GenerateOptions

	if len(schedule.Settings) > 0 {
		if err := json.Unmarshal(schedule.Settings, &opts); err != nil {
			return fault.Internal("failed to decode schedule settings", err)
		}
	}

	dueDate := now.AddDate(0, 0, schedule.DurationDays)

	reviewInput := CreateReviewInput{
		Name:           schedule.Name + " - " + now.Format("2006-01-02"),
		Type:           models.ReviewTypeScheduled,
		Scope:          schedule.Scope,
		OrganizationID: schedule.OrganizationID,
		WorkspaceID:    schedule.WorkspaceID,
		CreatedBy:      schedule.CreatedBy,
		AssignedTo:     schedule.AssignedTo,
		DueDate:        &dueDate,
		Settings:       &opts,
	}

	created, err := e.CreateReview(ctx, reviewInput)
	if err != nil {
		return err
	}

	count, err := e.GenerateReviewItems(ctx, created.ID, opts, schedule.CreatedBy)
	if err != nil {
		return err
	}

	nextRun := advance(now, schedule.Frequency)
	schedule.LastRunAt = &now
	schedule.NextRunAt = &nextRun

	if err := e.db.WithContext(ctx).Save(schedule).Error; err != nil {
		return fault.Storage("failed to advance schedule", err)
	}

	e.sink.Record(ctx, schedule.CreatedBy, audit.ActionScheduleRun, "access_review_schedule", schedule.ID, map[string]any{
		"review_id":  created.ID,
		"item_count": count,
	})

	return nil
}

// frequencyInterval validates the frequency and returns its calendar delta
// as (years, months, days).
func frequencyInterval(freq models.ReviewFrequency) ([3]int, error) {
	switch freq {
	case models.ReviewFrequencyDaily:
		return [3]int{0, 0, 1}, nil
	case models.ReviewFrequencyWeekly:
		return [3]int{0, 0, 7}, nil
	case models.ReviewFrequencyMonthly:
		return [3]int{0, 1, 0}, nil
	case models.ReviewFrequencyQuarterly:
		return [3]int{0, 3, 0}, nil
	case models.ReviewFrequencySemiAnnually:
		return [3]int{0, 6, 0}, nil
	case models.ReviewFrequencyAnnually:
		return [3]int{1, 0, 0}, nil
	default:
		return [3]int{}, fault.Validationf("unknown frequency %q", freq)
	}
}

// advance computes the next run time using Go's calendar normalization:
// month and year additions that overflow the day of month roll into the
// following month (Jan 31 + 1 month = Mar 2 in a leap year, Mar 3 otherwise).
// The rule is deliberate; it keeps the arithmetic deterministic without
// clamping logic.
func advance(t time.Time, freq models.ReviewFrequency) time.Time {
	delta, err := frequencyInterval(freq)
	if err != nil {
		// unknown frequencies are rejected at the boundary; fall back to daily
		delta = [3]int{0, 0, 1}
	}

	return t.AddDate(delta[0], delta[1], delta[2])
}
