// Package daemon wires the service together: database, cache, audit sink,
// authorization and review services, the cron-driven scheduler, and the web
// API. Every component is constructed once at startup with an established
// storage handle; there is no lazy initialization.
package daemon

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/accessdesk/accessdesk/internal/audit"
	"github.com/accessdesk/accessdesk/internal/authz"
	"github.com/accessdesk/accessdesk/internal/authz/cache"
	"github.com/accessdesk/accessdesk/internal/config"
	"github.com/accessdesk/accessdesk/internal/db/dsn"
	"github.com/accessdesk/accessdesk/internal/db/models"
	"github.com/accessdesk/accessdesk/internal/directory"
	"github.com/accessdesk/accessdesk/internal/logger"
	"github.com/accessdesk/accessdesk/internal/review"
	"github.com/accessdesk/accessdesk/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
	cron       *cron.Cron
	cache      cache.Cache
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(
		&models.Organization{},
		&models.Workspace{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.UserRole{},
		&models.ResourcePermission{},
		&models.AccessReview{},
		&models.AccessReviewItem{},
		&models.AccessReviewAction{},
		&models.AccessReviewSchedule{},
		&models.AuditEvent{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	seed(cfg, db)

	permCache := newCache(cfg)
	sink := audit.NewRecorder(db)
	resolver := authz.NewResolver(db)
	store := authz.NewStore(db)
	authority := authz.NewAuthority(db, resolver, store, permCache, sink)
	dir := directory.NewService(db)
	engine := review.NewEngine(db, authority, resolver, store, dir, sink, cfg.Review.DormantThresholdDays)

	c := cron.New()

	_, err = c.AddFunc(cfg.Review.SchedulerSpec, func() {
		count, err := engine.RunScheduledReviews(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("scheduled review run failed")
			return
		}

		if count > 0 {
			log.Info().Int("created", count).Msg("materialized scheduled reviews")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler spec %q: %w", cfg.Review.SchedulerSpec, err)
	}

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, authority, resolver, engine),
		cron:       c,
		cache:      permCache,
	}, nil
}

// Start runs the cron scheduler and the web service, blocking until a
// termination signal drains the listener.
func (d *Daemon) Start() error {
	d.cron.Start()
	defer d.cron.Stop()
	defer func() {
		if err := d.cache.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close permission cache")
		}
	}()

	go func() {
		if err := d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port)); err != nil {
			log.Error().Err(err).Msg("web service stopped with error")
		}
	}()

	d.webService.WaitShutdown()

	return nil
}

// openDatabase opens the gorm handle for the configured engine.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "sqlite":
		dialector = sqlite.Open(dsn.Create(cfg))
	case "postgres":
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case "mysql":
		dialector = gormmysql.Open(dsn.Create(cfg))
	default:
		return nil, fmt.Errorf("unsupported database engine %q", cfg.DB.GormEngine)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return db, nil
}

// newCache selects the permission cache backend: Redis when configured,
// the in-memory cache otherwise.
func newCache(cfg *config.Config) cache.Cache {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("no redis configured, using in-memory permission cache")

		return cache.NewMemoryCache(0)
	}

	client := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	return cache.NewRedisCache(client)
}
