// Package handler provides shared helpers for the web handler packages.
package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/accessdesk/accessdesk/internal/fault"
)

const (
	// RootPath is the root path of the API route group.
	RootPath = "/api"

	// ActorHeader carries the acting user's ID, set by the authenticating
	// front proxy. Authentication itself lives outside this service.
	ActorHeader = "X-Actor-ID"

	// ErrNilDepsFatalLogMsg is used if a handler dependency pointer is nil.
	ErrNilDepsFatalLogMsg = "handler dependency is nil"
)

// ActorID extracts the acting user's ID from the request headers.
// A missing or malformed header yields 0, the system actor.
func ActorID(c *fiber.Ctx) uint64 {
	raw := c.Get(ActorHeader)
	if raw == "" {
		return 0
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}

	return id
}

// Error is the single translation boundary from fault kinds to HTTP status
// codes. Internal and storage faults are logged here; 4xx kinds are the
// caller's problem and are not.
func Error(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch fault.KindOf(err) {
	case fault.KindValidation:
		status = fiber.StatusBadRequest
	case fault.KindNotFound:
		status = fiber.StatusNotFound
	case fault.KindUnsupported:
		status = fiber.StatusNotImplemented
	case fault.KindStorage, fault.KindInternal:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
