package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReviewFrequency represents the cadence of a review schedule.
type ReviewFrequency string

const (
	// ReviewFrequencyDaily runs every day.
	ReviewFrequencyDaily ReviewFrequency = "daily"
	// ReviewFrequencyWeekly runs every 7 days.
	ReviewFrequencyWeekly ReviewFrequency = "weekly"
	// ReviewFrequencyMonthly runs every calendar month.
	ReviewFrequencyMonthly ReviewFrequency = "monthly"
	// ReviewFrequencyQuarterly runs every 3 calendar months.
	ReviewFrequencyQuarterly ReviewFrequency = "quarterly"
	// ReviewFrequencySemiAnnually runs every 6 calendar months.
	ReviewFrequencySemiAnnually ReviewFrequency = "semi_annually"
	// ReviewFrequencyAnnually runs every calendar year.
	ReviewFrequencyAnnually ReviewFrequency = "annually"
)

// ScheduleStatus represents whether a schedule is eligible to run.
type ScheduleStatus string

const (
	// ScheduleStatusActive indicates the schedule is eligible to run.
	ScheduleStatusActive ScheduleStatus = "active"
	// ScheduleStatusPaused indicates the schedule is suspended.
	ScheduleStatusPaused ScheduleStatus = "paused"
)

// AccessReviewSchedule is a recurring template from which scheduled access
// reviews are materialized. NextRunAt is computed on creation and recomputed
// after every run.
type AccessReviewSchedule struct {
	// ID is the unique identifier for the schedule (ULID).
	ID string `gorm:"primaryKey;size:26"`
	// Name is the display name; materialized reviews derive their name from it.
	Name string `gorm:"size:255;not null"`
	// Frequency is the cadence at which reviews are materialized.
	Frequency ReviewFrequency `gorm:"type:varchar(20);not null"`
	// Status indicates whether the schedule is eligible to run.
	Status ScheduleStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	// Scope is the boundary materialized reviews will cover.
	Scope ReviewScope `gorm:"type:varchar(20);not null"`
	// OrganizationID scopes materialized reviews to one organization.
	OrganizationID *uint `gorm:"index"`
	// WorkspaceID scopes materialized reviews to one workspace.
	WorkspaceID *uint `gorm:"index"`
	// CreatedBy is the ID of the actor who created the schedule.
	CreatedBy uint64 `gorm:"not null"`
	// AssignedTo is the reviewer materialized reviews are assigned to.
	AssignedTo uint64
	// DurationDays sets the due date of materialized reviews (run time + DurationDays).
	DurationDays int `gorm:"not null;default:14"`
	// Settings is the item-generation options bag copied into every run.
	Settings datatypes.JSON
	// LastRunAt is the time of the most recent run.
	LastRunAt *time.Time
	// NextRunAt is the next time the schedule is due.
	NextRunAt *time.Time `gorm:"index"`
	// CreatedAt is the timestamp when the schedule was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the schedule was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the AccessReviewSchedule model.
func (AccessReviewSchedule) TableName() string {
	return "access_review_schedules"
}
