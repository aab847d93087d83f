package config

import (
	"errors"
)

var (
	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrDBEngineEmpty error if config db.gormengine is empty.
	ErrDBEngineEmpty = errors.New("toml config db.gormengine can not be empty")
)
