package config

import (
	"github.com/accessdesk/accessdesk/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Redis     Redis
	Log       logger.Log
	Review    Review
	Title     string
	Webserver Webserver
}

// Webserver implements webserver settings.
type Webserver struct {
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown in seconds
	URL            string // base url for the webserver
	DisableRecover bool   // disable recover middleware
}

// Redis holds the connection settings for the Redis-backed permission cache.
// When Addr is empty the service falls back to the in-memory cache.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Review holds the access-review engine settings.
type Review struct {
	// SchedulerSpec is the cron spec used to poll for due review schedules.
	SchedulerSpec string
	// DormantThresholdDays is the default last-login age after which an
	// account is considered dormant during item generation.
	DormantThresholdDays int
}
