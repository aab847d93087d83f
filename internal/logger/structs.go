package logger

// Console implements a console based logger.
type Console struct {
	Enabled bool `toml:"enabled"`
	Pretty  bool `toml:"pretty"` // human readable output instead of JSON
}

// LogFile implements a file based logger.
type LogFile struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	Name       string `toml:"name"`
	MaxSize    int    `toml:"maxSize"`
	MaxBackups int    `toml:"maxBackups"`
	MaxAge     int    `toml:"maxAge"`
}

// Log implements the logger config.
type Log struct {
	LogLevel string // trace, debug, info, warn, error.

	ReportCaller bool

	ServiceName string

	Console Console
	File    LogFile
}
