// Package web implements the JSON API service.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/accessdesk/accessdesk/internal/authz"
	"github.com/accessdesk/accessdesk/internal/config"
	"github.com/accessdesk/accessdesk/internal/review"
	permissionhandler "github.com/accessdesk/accessdesk/internal/web/handler/permission"
	reviewhandler "github.com/accessdesk/accessdesk/internal/web/handler/review"
	schedulehandler "github.com/accessdesk/accessdesk/internal/web/handler/schedule"
)

// Service represents the web service.
type Service struct {
	App   *fiber.App
	cfg   *config.Config
	alive atomic.Bool
}

// New creates a new web service with the given configuration and wires the
// handler packages to their dependencies.
func New(
	cfg *config.Config,
	authority *authz.Authority,
	resolver *authz.Resolver,
	engine *review.Engine,
) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.Title,
		DisableStartupMessage: !cfg.DevMode,
	})

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	s := &Service{
		App: app,
		cfg: cfg,
	}
	s.alive.Store(true)

	// ops endpoints
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/checkalive", func(c *fiber.Ctx) error {
		if !s.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	var permissions permissionhandler.Service
	permissions.Init(app, authority, resolver)

	var reviews reviewhandler.Service
	reviews.Init(app, engine)

	var schedules schedulehandler.Service
	schedules.Init(app, engine)

	return s
}

// Start starts the web service on the given address and blocks until the
// listener stops.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown blocks until a termination signal arrives, then drains the
// listener gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Fail /checkalive first so load balancers remove this instance before
	// the listener goes away.
	s.alive.Store(false)
	time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server stopped")
}
