// Package schedule provides handlers for recurring review schedules.
package schedule

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/fault"
	"github.com/accessdesk/accessdesk/internal/review"
	"github.com/accessdesk/accessdesk/internal/web/handler"
)

// Path is the base path for schedule endpoints.
const Path = handler.RootPath + "/schedules"

// Service exposes the review schedule endpoints.
type Service struct {
	engine    *review.Engine
	validator *validator.Validate
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, engine *review.Engine) {
	if app == nil || engine == nil {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.engine = engine
	s.validator = validator.New()

	app.Post(Path, s.Create)
	app.Get(Path, s.List)
	app.Get(Path+"/:id", s.Get)
	app.Patch(Path+"/:id", s.Update)
	app.Delete(Path+"/:id", s.Delete)
	app.Post(Path+"/run", s.Run)
}

type createScheduleRequest struct {
	Name           string                  `json:"name" validate:"required"`
	Frequency      models.ReviewFrequency  `json:"frequency" validate:"required"`
	Scope          models.ReviewScope      `json:"scope" validate:"required"`
	OrganizationID *uint                   `json:"organizationId"`
	WorkspaceID    *uint                   `json:"workspaceId"`
	AssignedTo     uint64                  `json:"assignedTo"`
	DurationDays   int                     `json:"durationDays"`
	Settings       *review.GenerateOptions `json:"settings"`
}

// Create creates a review schedule.
func (s *Service) Create(c *fiber.Ctx) error {
	var req createScheduleRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fault.Validationf("invalid request body"))
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.Error(c, fault.Validationf("%v", err))
	}

	created, err := s.engine.CreateSchedule(c.Context(), review.ScheduleInput{
		Name:           req.Name,
		Frequency:      req.Frequency,
		Scope:          req.Scope,
		OrganizationID: req.OrganizationID,
		WorkspaceID:    req.WorkspaceID,
		CreatedBy:      handler.ActorID(c),
		AssignedTo:     req.AssignedTo,
		DurationDays:   req.DurationDays,
		Settings:       req.Settings,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// List returns every schedule.
func (s *Service) List(c *fiber.Ctx) error {
	schedules, err := s.engine.ListSchedules(c.Context())
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"schedules": schedules})
}

// Get returns one schedule.
func (s *Service) Get(c *fiber.Ctx) error {
	found, err := s.engine.GetSchedule(c.Context(), c.Params("id"))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(found)
}

type updateScheduleRequest struct {
	Name         *string                 `json:"name"`
	Status       *models.ScheduleStatus  `json:"status"`
	Frequency    *models.ReviewFrequency `json:"frequency"`
	AssignedTo   *uint64                 `json:"assignedTo"`
	DurationDays *int                    `json:"durationDays"`
}

// Update patches a schedule.
func (s *Service) Update(c *fiber.Ctx) error {
	var req updateScheduleRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fault.Validationf("invalid request body"))
	}

	updated, err := s.engine.UpdateSchedule(c.Context(), c.Params("id"), review.SchedulePatch{
		Name:         req.Name,
		Status:       req.Status,
		Frequency:    req.Frequency,
		AssignedTo:   req.AssignedTo,
		DurationDays: req.DurationDays,
	}, handler.ActorID(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(updated)
}

// Delete removes a schedule.
func (s *Service) Delete(c *fiber.Ctx) error {
	if err := s.engine.DeleteSchedule(c.Context(), c.Params("id"), handler.ActorID(c)); err != nil {
		return handler.Error(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Run processes every due schedule immediately. The cron entry calls the
// same engine method; this endpoint exists for operators.
func (s *Service) Run(c *fiber.Ctx) error {
	count, err := s.engine.RunScheduledReviews(c.Context())
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"created": count})
}
