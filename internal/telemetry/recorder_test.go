package telemetry_test

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"storyline/internal/config"
	"storyline/internal/telemetry"
)

func TestRecorderCountsOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	rec, err := telemetry.NewRecorder(provider.Meter("test"))
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	ctx := context.Background()
	rec.RecordTransition(ctx, "Idea", "Script", telemetry.OutcomeSuccess, 3*time.Millisecond)
	rec.RecordTransition(ctx, "Idea", "Script", telemetry.OutcomeConflict, time.Millisecond)
	rec.RecordTransition(ctx, "Idea", "Script", telemetry.OutcomeConflict, time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	counts := map[string]int64{}
	var sawHistogram bool
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if m.Name != "storyline.transitions" {
					continue
				}
				for _, dp := range data.DataPoints {
					outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
					counts[outcome.AsString()] += dp.Value
				}
			case metricdata.Histogram[float64]:
				if m.Name == "storyline.transition.duration_ms" {
					sawHistogram = true
				}
			}
		}
	}
	if counts[telemetry.OutcomeSuccess] != 1 || counts[telemetry.OutcomeConflict] != 2 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if !sawHistogram {
		t.Fatal("expected duration histogram")
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *telemetry.Recorder
	rec.RecordTransition(context.Background(), "Idea", "Script", telemetry.OutcomeSuccess, time.Millisecond)
}

func TestInitDisabledInstallsNoop(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), config.Telemetry{}, "test")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if _, err := telemetry.NewRecorder(nil); err != nil {
		t.Fatalf("NewRecorder on noop provider: %v", err)
	}
}
