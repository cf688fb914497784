package config

import "github.com/YuminosukeSato/playertier/pkg/errors"

// Sentinel error kinds for this package, for errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
