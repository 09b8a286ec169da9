package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/library-ledger-go/ledger/oteladapters"
)

func newMeteredCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	return resourceMetrics
}

func findMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	require.Failf(t, "metric not found", "metric %s was not collected", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration_InSeconds(t *testing.T) {
	// arrange
	collector, reader := newMeteredCollector()
	labels := map[string]string{"operation": "borrow_book", "status": "success"}

	// act
	collector.RecordDuration("ledger_operation_duration_seconds", 250*time.Millisecond, labels)

	// assert
	m := findMetric(t, collect(t, reader), "ledger_operation_duration_seconds")
	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "expected a float64 histogram")
	require.Len(t, histogram.DataPoints, 1)

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count)
	assert.InDelta(t, 0.25, dataPoint.Sum, 0.0001)
	assert.Equal(t, "s", m.Unit)
	assert.Equal(t, "ledger operation duration", m.Description)

	expectedAttrs := attribute.NewSet(attribute.String("operation", "borrow_book"), attribute.String("status", "success"))
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs))
}

func Test_MetricsCollector_IncrementCounter_ReusesInstrument(t *testing.T) {
	// arrange
	collector, reader := newMeteredCollector()
	labels := map[string]string{"operation": "return_book", "status": "rejected"}

	// act
	collector.IncrementCounter("ledger_operation_calls_total", labels)
	collector.IncrementCounterContext(context.Background(), "ledger_operation_calls_total", labels)
	collector.IncrementCounter("ledger_operation_calls_total", labels)

	// assert
	m := findMetric(t, collect(t, reader), "ledger_operation_calls_total")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum")
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
	assert.True(t, sum.IsMonotonic)
}

func Test_MetricsCollector_RecordValue_KeepsLastValue(t *testing.T) {
	// arrange
	collector, reader := newMeteredCollector()
	labels := map[string]string{"operation": "mark_overdue"}

	// act
	collector.RecordValue("ledger_rows_affected", 4, labels)
	collector.RecordValueContext(context.Background(), "ledger_rows_affected", 7, labels)

	// assert
	m := findMetric(t, collect(t, reader), "ledger_rows_affected")
	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok, "expected a float64 gauge")
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 7.0, gauge.DataPoints[0].Value, 0.0001)
}

func Test_MetricsCollector_NilAndEmptyLabels(t *testing.T) {
	// arrange
	collector, reader := newMeteredCollector()

	// act
	collector.IncrementCounter("library_sweeps_total", nil)
	collector.IncrementCounter("library_sweeps_total", map[string]string{})

	// assert
	m := findMetric(t, collect(t, reader), "library_sweeps_total")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1, "nil and empty labels yield the same attribute set")
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
	assert.Equal(t, 0, sum.DataPoints[0].Attributes.Len())
	assert.Equal(t, "library operation counter", m.Description)
}

func Test_MetricsCollector_ConcurrentUse(t *testing.T) {
	// arrange
	collector, reader := newMeteredCollector()
	var wg sync.WaitGroup

	// act
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter("ledger_operation_calls_total", map[string]string{"operation": "get_book"})
			collector.RecordDuration("ledger_operation_duration_seconds", time.Millisecond, nil)
		}()
	}
	wg.Wait()

	// assert
	m := findMetric(t, collect(t, reader), "ledger_operation_calls_total")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(20), sum.DataPoints[0].Value)
}
