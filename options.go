package docqueue

import (
	"log/slog"
	"time"
)

const (
	// DefaultAgeBoost is how far a deprioritized task's timestamp must lie
	// from the oldest pending timestamp before it stops being deprioritized.
	DefaultAgeBoost = 5 * time.Minute

	// DefaultFairnessThreshold is the number of distinct pending tasks that
	// moves a user into the fairness tier.
	DefaultFairnessThreshold = 3
)

// Options holds configuration options for the [Queue].
type Options struct {
	Catalog           *Catalog
	AgeBoost          time.Duration
	FairnessThreshold int
	FairnessRelease   FairnessRelease
	Metrics           MetricsHook
	Logger            *slog.Logger
}

// Option is a function that configures [Options].
type Option func(*Options)

// WithCatalog sets the provider catalog. Nil catalogs are ignored.
func WithCatalog(c *Catalog) Option {
	return func(o *Options) {
		if c != nil {
			o.Catalog = c
		}
	}
}

// WithAgeBoost sets the age boost threshold. Negative values are ignored.
func WithAgeBoost(d time.Duration) Option {
	return func(o *Options) {
		if d >= 0 {
			o.AgeBoost = d
		}
	}
}

// WithFairnessThreshold sets how many pending tasks activate the fairness
// tier for a user. Values below one are ignored.
func WithFairnessThreshold(n int) Option {
	return func(o *Options) {
		if n >= 1 {
			o.FairnessThreshold = n
		}
	}
}

// WithFairnessRelease sets when a user leaves the fairness tier.
func WithFairnessRelease(r FairnessRelease) Option {
	return func(o *Options) {
		o.FairnessRelease = r
	}
}

// WithMetricsHook sets the metrics hook for the [Queue].
func WithMetricsHook(hook MetricsHook) Option {
	return func(o *Options) {
		o.Metrics = hook
	}
}

// WithLogger sets the logger for the [Queue]. Queue events are logged at
// debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
