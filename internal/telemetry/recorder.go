package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Transition outcomes recorded on storyline.transitions.
const (
	OutcomeSuccess             = "success"
	OutcomeConflict            = "conflict"
	OutcomeMissingPrerequisite = "missing_prerequisite"
	OutcomeNotFound            = "not_found"
	OutcomeError               = "error"
)

// Recorder counts move-forward attempts and their latency. A nil *Recorder
// records nothing.
type Recorder struct {
	transitions metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewRecorder registers the transition instruments on meter. A nil meter uses
// the global provider.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	if meter == nil {
		meter = Meter("storyline/transition")
	}
	transitions, err := meter.Int64Counter("storyline.transitions",
		metric.WithDescription("Move-forward attempts by stage pair and outcome"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("storyline.transition.duration_ms",
		metric.WithDescription("Move-forward latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	return &Recorder{transitions: transitions, duration: duration}, nil
}

// RecordTransition adds one attempt. from or to may be empty when the request
// failed before the stage was known.
func (r *Recorder) RecordTransition(ctx context.Context, from, to, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
		attribute.String("outcome", outcome),
	)
	r.transitions.Add(ctx, 1, attrs)
	r.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}
