package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsCreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"studyscroll.generation.duration", m.GenerationDuration},
		{"studyscroll.synthesis.duration", m.SynthesisDuration},
		{"studyscroll.pipeline.duration", m.PipelineDuration},
	}

	for _, tc := range histograms {
		tc.h.Record(ctx, 1.5)
		tc.h.Record(ctx, 12.0)
	}

	rm := collect(t, reader)
	for _, tc := range histograms {
		t.Run(tc.name, func(t *testing.T) {
			md := findMetric(rm, tc.name)
			if md == nil {
				t.Fatalf("metric %s not found", tc.name)
			}
			hist, ok := md.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %s is %T, want Histogram[float64]", tc.name, md.Data)
			}
			if n := hist.DataPoints[0].Count; n != 2 {
				t.Errorf("count = %d, want 2", n)
			}
		})
	}
}

func TestCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderRequest(ctx, "gemini", "llm", "ok")
	m.RecordProviderError(ctx, "gemini", "llm")
	m.RecordSessionCreated(ctx, true)
	m.RecordSessionCreated(ctx, false)

	rm := collect(t, reader)
	for _, name := range []string{
		"studyscroll.provider.requests",
		"studyscroll.provider.errors",
		"studyscroll.sessions.created",
	} {
		if findMetric(rm, name) == nil {
			t.Errorf("metric %s not found", name)
		}
	}

	created := findMetric(rm, "studyscroll.sessions.created")
	sum, ok := created.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("sessions.created is %T, want Sum[int64]", created.Data)
	}
	// One data point per audio attribute value.
	if len(sum.DataPoints) != 2 {
		t.Errorf("sessions.created data points = %d, want 2", len(sum.DataPoints))
	}
}
