// Package otelmetrics reports queue events as OpenTelemetry metrics.
package otelmetrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tomasbasham/docqueue"
)

const namespace = "docqueue"

// Ensure Hook implements [docqueue.MetricsHook].
var _ docqueue.MetricsHook = (*Hook)(nil)

// Hook implements [docqueue.MetricsHook] on top of an OpenTelemetry meter.
type Hook struct {
	enqueued     metric.Int64Counter
	deduplicated metric.Int64Counter
	dequeued     metric.Int64Counter
	ageBoosted   metric.Int64Counter
	pending      metric.Int64UpDownCounter
	fairness     metric.Int64Counter
	purged       metric.Int64Counter
}

// New creates a new Hook registering its instruments with mp.
func New(mp metric.MeterProvider) (*Hook, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	h := new(Hook)
	var err error

	if h.enqueued, err = meter.Int64Counter(
		"tasks_enqueued_total",
		metric.WithDescription("Total number of tasks inserted into the queue"),
	); err != nil {
		return nil, err
	}

	if h.deduplicated, err = meter.Int64Counter(
		"tasks_deduplicated_total",
		metric.WithDescription("Total number of submissions merged into a pending task"),
	); err != nil {
		return nil, err
	}

	if h.dequeued, err = meter.Int64Counter(
		"tasks_dequeued_total",
		metric.WithDescription("Total number of tasks dequeued"),
	); err != nil {
		return nil, err
	}

	if h.ageBoosted, err = meter.Int64Counter(
		"tasks_age_boosted_total",
		metric.WithDescription("Total number of deprioritized tasks dequeued through the age boost"),
	); err != nil {
		return nil, err
	}

	if h.pending, err = meter.Int64UpDownCounter(
		"tasks_pending",
		metric.WithDescription("Number of pending tasks"),
	); err != nil {
		return nil, err
	}

	if h.fairness, err = meter.Int64Counter(
		"fairness_transitions_total",
		metric.WithDescription("Total number of users entering or leaving the fairness tier"),
	); err != nil {
		return nil, err
	}

	if h.purged, err = meter.Int64Counter(
		"tasks_purged_total",
		metric.WithDescription("Total number of tasks removed by purges"),
	); err != nil {
		return nil, err
	}

	return h, nil
}

func providerAttr(p docqueue.Provider) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("provider", p.String()))
}

func (h *Hook) OnEnqueue(rec docqueue.TaskRecord, inserted bool) {
	ctx := context.Background()
	if !inserted {
		h.deduplicated.Add(ctx, 1, providerAttr(rec.Provider))
		return
	}
	h.enqueued.Add(ctx, 1, providerAttr(rec.Provider))
	h.pending.Add(ctx, 1)
}

func (h *Hook) OnDequeue(rec docqueue.TaskRecord) {
	ctx := context.Background()
	h.dequeued.Add(ctx, 1, providerAttr(rec.Provider))
	h.pending.Add(ctx, -1)
	if rec.AgeBoosted {
		h.ageBoosted.Add(ctx, 1, providerAttr(rec.Provider))
	}
}

func (h *Hook) OnFairness(_ int, _ time.Time, active bool) {
	state := "released"
	if active {
		state = "activated"
	}
	h.fairness.Add(context.Background(), 1, metric.WithAttributes(attribute.String("state", state)))
}

func (h *Hook) OnPurge(removed int) {
	ctx := context.Background()
	h.purged.Add(ctx, int64(removed))
	h.pending.Add(ctx, -int64(removed))
}
