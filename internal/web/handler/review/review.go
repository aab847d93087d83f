// Package review provides handlers for access reviews, review items, and
// reviewer actions.
package review

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/fault"
	"github.com/accessdesk/accessdesk/internal/review"
	"github.com/accessdesk/accessdesk/internal/web/handler"
)

const (
	// Path is the base path for review endpoints.
	Path = handler.RootPath + "/reviews"
	// ItemPath is the base path for review item endpoints.
	ItemPath = handler.RootPath + "/review-items"
	// ActionPath is the base path for review action endpoints.
	ActionPath = handler.RootPath + "/review-actions"
)

// Service exposes the review lifecycle endpoints.
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
	app.Post(Path+"/:id/generate-items", s.GenerateItems)
	app.Get(Path+"/:id/items", s.ListItems)

	app.Patch(ItemPath+"/:id", s.UpdateItem)
	app.Post(ItemPath+"/:id/actions", s.CreateAction)

	app.Post(ActionPath+"/:id/execute", s.ExecuteAction)
}

type createReviewRequest struct {
	Name           string                  `json:"name" validate:"required"`
	Type           models.ReviewType       `json:"type"`
	Scope          models.ReviewScope      `json:"scope" validate:"required"`
	OrganizationID *uint                   `json:"organizationId"`
	WorkspaceID    *uint                   `json:"workspaceId"`
	AssignedTo     uint64                  `json:"assignedTo"`
	DueDate        *time.Time              `json:"dueDate"`
	Settings       *review.GenerateOptions `json:"settings"`
}

// Create creates an ad hoc review.
func (s *Service) Create(c *fiber.Ctx) error {
	var req createReviewRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fault.Validationf("invalid request body"))
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.Error(c, fault.Validationf("%v", err))
	}

	created, err := s.engine.CreateReview(c.Context(), review.CreateReviewInput{
		Name:           req.Name,
		Type:           req.Type,
		Scope:          req.Scope,
		OrganizationID: req.OrganizationID,
		WorkspaceID:    req.WorkspaceID,
		CreatedBy:      handler.ActorID(c),
		AssignedTo:     req.AssignedTo,
		DueDate:        req.DueDate,
		Settings:       req.Settings,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// List returns reviews matching the query filters.
func (s *Service) List(c *fiber.Ctx) error {
	var filter review.ReviewFilter

	if v := c.Query("status"); v != "" {
		status := models.ReviewStatus(v)
		filter.Status = &status
	}

	if v := c.Query("type"); v != "" {
		reviewType := models.ReviewType(v)
		filter.Type = &reviewType
	}

	if v := c.Query("scope"); v != "" {
		scope := models.ReviewScope(v)
		filter.Scope = &scope
	}

	if v := c.QueryInt("organizationId"); v > 0 {
		orgID := uint(v)
		filter.OrganizationID = &orgID
	}

	if v := c.QueryInt("workspaceId"); v > 0 {
		wsID := uint(v)
		filter.WorkspaceID = &wsID
	}

	reviews, err := s.engine.ListReviews(c.Context(), filter)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"reviews": reviews})
}

// Get returns one review.
func (s *Service) Get(c *fiber.Ctx) error {
	found, err := s.engine.GetReview(c.Context(), c.Params("id"))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(found)
}

type updateReviewRequest struct {
	Name       *string              `json:"name"`
	Status     *models.ReviewStatus `json:"status"`
	AssignedTo *uint64              `json:"assignedTo"`
	DueDate    *time.Time           `json:"dueDate"`
}

// Update patches a review.
func (s *Service) Update(c *fiber.Ctx) error {
	var req updateReviewRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fault.Validationf("invalid request body"))
	}

	updated, err := s.engine.UpdateReview(c.Context(), c.Params("id"), review.UpdateReviewInput{
		Name:       req.Name,
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
		DueDate:    req.DueDate,
	}, handler.ActorID(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(updated)
}

// Delete removes a review with its items and actions.
func (s *Service) Delete(c *fiber.Ctx) error {
	if err := s.engine.DeleteReview(c.Context(), c.Params("id"), handler.ActorID(c)); err != nil {
		return handler.Error(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GenerateItems materializes review items from live authorization state.
func (s *Service) GenerateItems(c *fiber.Ctx) error {
	var opts review.GenerateOptions

	if len(c.Body()) > 0 {
		if err := c.BodyParser(&opts); err != nil {
			return handler.Error(c, fault.Validationf("invalid request body"))
		}
	}

	count, err := s.engine.GenerateReviewItems(c.Context(), c.Params("id"), opts, handler.ActorID(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"generated": count})
}

// ListItems returns the review's items.
func (s *Service) ListItems(c *fiber.Ctx) error {
	reviewID := c.Params("id")
	filter := review.ItemFilter{ReviewID: &reviewID}

	if v := c.Query("status"); v != "" {
		status := models.ReviewItemStatus(v)
		filter.Status = &status
	}

	if v := c.Query("type"); v != "" {
		itemType := models.ReviewItemType(v)
		filter.Type = &itemType
	}

	items, err := s.engine.ListReviewItems(c.Context(), filter)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"items": items})
}

type updateItemRequest struct {
	Status     *models.ReviewItemStatus `json:"status"`
	IsRisky    *bool                    `json:"isRisky"`
	RiskReason *string                  `json:"riskReason"`
	Metadata   map[string]any           `json:"metadata"`
}

// UpdateItem patches a review item.
func (s *Service) UpdateItem(c *fiber.Ctx) error {
	var req updateItemRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fault.Validationf("invalid request body"))
	}

	updated, err := s.engine.UpdateReviewItem(c.Context(), c.Params("id"), review.ItemPatch{
		Status:     req.Status,
		IsRisky:    req.IsRisky,
		RiskReason: req.RiskReason,
		Metadata:   req.Metadata,
	}, handler.ActorID(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(updated)
}

type createActionRequest struct {
	Type   models.ReviewActionType   `json:"type" validate:"required"`
	Status models.ReviewActionStatus `json:"status"`
}

// CreateAction records a reviewer decision on an item.
func (s *Service) CreateAction(c *fiber.Ctx) error {
	var req createActionRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fault.Validationf("invalid request body"))
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.Error(c, fault.Validationf("%v", err))
	}

	action, err := s.engine.CreateReviewAction(c.Context(), review.ActionInput{
		ReviewItemID: c.Params("id"),
		Type:         req.Type,
		Status:       req.Status,
		PerformedBy:  handler.ActorID(c),
	})
	if err != nil {
		return handler.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(action)
}

// ExecuteAction executes a pending action's remediation. A remediation
// failure is reported through the returned action's status, not through an
// HTTP error.
func (s *Service) ExecuteAction(c *fiber.Ctx) error {
	action, err := s.engine.ExecuteReviewAction(c.Context(), c.Params("id"))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(action)
}
