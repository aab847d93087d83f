// Package permission provides handlers for permission checks and direct
// resource grants.
package permission

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/accessdesk/accessdesk/internal/authz"
	"github.com/accessdesk/accessdesk/internal/fault"
	"github.com/accessdesk/accessdesk/internal/web/handler"
)

// Path is the base path for permission endpoints.
const Path = handler.RootPath + "/permissions"

// Service exposes permission check and grant endpoints.
type Service struct {
	authority *authz.Authority
	resolver  *authz.Resolver
	validator *validator.Validate
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, authority *authz.Authority, resolver *authz.Resolver) {
	if app == nil || authority == nil || resolver == nil {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.authority = authority
	s.resolver = resolver
	s.validator = validator.New()

	app.Get(Path+"/check", s.Check)
	app.Post(Path+"/batch-check", s.BatchCheck)
	app.Post(Path+"/grants", s.Grant)
	app.Delete(Path+"/grants", s.Revoke)
	app.Get(Path+"/users/:id", s.UserPermissions)
	app.Delete(handler.RootPath+"/resources/:type/:id/permissions", s.RevokeAll)
}

// Check answers a single permission question.
func (s *Service) Check(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Query("userId"), 10, 64)
	if err != nil {
		return handler.Error(c, fault.Validationf("userId must be a positive integer"))
	}

	resourceType := c.Query("resourceType")
	resourceID := c.Query("resourceId")
	action := c.Query("action")

	if resourceType == "" || resourceID == "" || action == "" {
		return handler.Error(c, fault.Validationf("resourceType, resourceId and action are required"))
	}

	allowed, err := s.authority.HasResourcePermission(c.Context(), userID, resourceType, resourceID, action)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"allowed": allowed})
}

type batchCheckRequest struct {
	UserID       uint64   `json:"userId" validate:"required"`
	ResourceType string   `json:"resourceType" validate:"required"`
	ResourceID   string   `json:"resourceId" validate:"required"`
	Actions      []string `json:"actions" validate:"required,min=1"`
}

// BatchCheck answers several permission questions on one resource at once.
func (s *Service) BatchCheck(c *fiber.Ctx) error {
	var req batchCheckRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fault.Validationf("invalid request body"))
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.Error(c, fault.Validationf("%v", err))
	}

	results := s.authority.BatchCheckPermissions(c.Context(), req.UserID, req.ResourceType, req.ResourceID, req.Actions)

	return c.JSON(fiber.Map{"results": results})
}

type grantRequest struct {
	UserID       uint64 `json:"userId" validate:"required"`
	ResourceType string `json:"resourceType" validate:"required"`
	ResourceID   string `json:"resourceId" validate:"required"`
	Permission   string `json:"permission" validate:"required"`
}

// Grant creates a direct resource grant.
func (s *Service) Grant(c *fiber.Ctx) error {
	var req grantRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fault.Validationf("invalid request body"))
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.Error(c, fault.Validationf("%v", err))
	}

	grant, err := s.authority.AssignPermission(
		c.Context(),
		handler.ActorID(c),
		req.UserID,
		req.ResourceType,
		req.ResourceID,
		req.Permission,
	)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(grant)
}

// Revoke deletes a direct resource grant.
func (s *Service) Revoke(c *fiber.Ctx) error {
	var req grantRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fault.Validationf("invalid request body"))
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.Error(c, fault.Validationf("%v", err))
	}

	err := s.authority.RemovePermission(
		c.Context(),
		handler.ActorID(c),
		req.UserID,
		req.ResourceType,
		req.ResourceID,
		req.Permission,
	)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UserPermissions returns the user's role closure.
func (s *Service) UserPermissions(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return handler.Error(c, fault.Validationf("user id must be a positive integer"))
	}

	permissions, err := s.resolver.GetUserPermissions(c.Context(), userID)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"permissions": permissions})
}

// RevokeAll deletes every grant on a resource, used by resource deletion.
func (s *Service) RevokeAll(c *fiber.Ctx) error {
	deleted, err := s.authority.RemoveAllPermissionsForResource(
		c.Context(),
		handler.ActorID(c),
		c.Params("type"),
		c.Params("id"),
	)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{"deleted": deleted})
}
