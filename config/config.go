// Package config loads docqueue settings from the environment.
//
// Variables are read from the process environment after an optional .env
// file in the working directory has been applied:
//
//	DOCQUEUE_CATALOG             path to a YAML provider catalog (default: built in)
//	DOCQUEUE_AGE_BOOST           age boost threshold (default: 5m)
//	DOCQUEUE_FAIRNESS_THRESHOLD  pending tasks that activate fairness (default: 3)
//	DOCQUEUE_FAIRNESS_RELEASE    "drain" or "threshold" (default: drain)
//	DOCQUEUE_LOG_LEVEL           debug, info, warn or error (default: info)
//	DOCQUEUE_LOG_FORMAT          json or text (default: json)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/tomasbasham/docqueue"
	"github.com/tomasbasham/docqueue/logger"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed
	// into the config struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrInvalidConfig is returned when parsed values are out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds queue and logging settings.
type Config struct {
	CatalogPath       string                   `env:"DOCQUEUE_CATALOG"`
	AgeBoost          time.Duration            `env:"DOCQUEUE_AGE_BOOST" envDefault:"5m" validate:"gte=0"`
	FairnessThreshold int                      `env:"DOCQUEUE_FAIRNESS_THRESHOLD" envDefault:"3" validate:"gte=1"`
	FairnessRelease   docqueue.FairnessRelease `env:"DOCQUEUE_FAIRNESS_RELEASE" envDefault:"drain"`
	LogLevel          slog.Level               `env:"DOCQUEUE_LOG_LEVEL" envDefault:"info"`
	LogFormat         logger.Format            `env:"DOCQUEUE_LOG_FORMAT" envDefault:"json"`
}

var validate = validator.New()

// Load reads the configuration from the environment.
func Load() (Config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Logger builds a logger from the logging settings.
func (c Config) Logger() *slog.Logger {
	return logger.New(
		logger.WithLevel(c.LogLevel),
		logger.WithFormat(c.LogFormat),
		logger.WithAttr(slog.String("service", "docqueue")),
	)
}

// Options translates the configuration into queue options. The catalog file,
// if any, is loaded and validated here.
func (c Config) Options() ([]docqueue.Option, error) {
	opts := []docqueue.Option{
		docqueue.WithAgeBoost(c.AgeBoost),
		docqueue.WithFairnessThreshold(c.FairnessThreshold),
		docqueue.WithFairnessRelease(c.FairnessRelease),
	}

	if c.CatalogPath != "" {
		catalog, err := docqueue.LoadCatalogFile(c.CatalogPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, docqueue.WithCatalog(catalog))
	}
	return opts, nil
}
