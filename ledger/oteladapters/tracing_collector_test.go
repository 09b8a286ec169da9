package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/library-ledger-go/ledger/oteladapters"
)

func newTracedCollector(t *testing.T) (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func attributeValue(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// arrange
	collector, exporter := newTracedCollector(t)

	// act
	ctx, span := collector.StartSpan(context.Background(), "ledger.borrow_book", map[string]string{"operation": "borrow_book"})
	span.AddAttribute("book_id", "b-1")
	collector.FinishSpan(span, "success", map[string]string{"duration_ms": "1.250"})

	// assert
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid(), "context carries the span")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "ledger.borrow_book", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	for key, expected := range map[string]string{
		"operation":   "borrow_book",
		"book_id":     "b-1",
		"duration_ms": "1.250",
		"status":      "success",
	} {
		value, found := attributeValue(spans[0].Attributes, key)
		assert.True(t, found, "attribute %s", key)
		assert.Equal(t, expected, value)
	}
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	testCases := []struct {
		status string
		code   codes.Code
	}{
		{"success", codes.Ok},
		{"rejected", codes.Ok},
		{"error", codes.Error},
		{"canceled", codes.Error},
		{"timeout", codes.Error},
		{"conflict", codes.Error},
		{"something_else", codes.Unset},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			// arrange
			collector, exporter := newTracedCollector(t)
			_, span := collector.StartSpan(context.Background(), "ledger.return_book", nil)

			// act
			collector.FinishSpan(span, tc.status, nil)

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.code, spans[0].Status.Code)

			status, _ := attributeValue(spans[0].Attributes, "status")
			assert.Equal(t, tc.status, status)
		})
	}
}

func Test_TracingCollector_NestsChildSpans(t *testing.T) {
	// arrange
	collector, exporter := newTracedCollector(t)

	// act
	ctx, parent := collector.StartSpan(context.Background(), "library.borrow_book", nil)
	_, child := collector.StartSpan(ctx, "ledger.borrow_book", nil)
	collector.FinishSpan(child, "success", nil)
	collector.FinishSpan(parent, "success", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "ledger.borrow_book", spans[0].Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
}

type foreignSpan struct{}

func (foreignSpan) SetStatus(string)            {}
func (foreignSpan) AddAttribute(string, string) {}

func Test_TracingCollector_IgnoresForeignSpanContext(t *testing.T) {
	// arrange
	collector, exporter := newTracedCollector(t)

	// act & assert
	assert.NotPanics(t, func() { collector.FinishSpan(foreignSpan{}, "success", nil) })
	assert.Empty(t, exporter.GetSpans())
}
