package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/olist/dashboard/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory span recorder as the global provider
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestStartSpan(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, span := telemetry.StartSpan(context.Background(), "pipeline.build",
		telemetry.WithAttribute(telemetry.SpanAttrRunID, "run-1"),
		telemetry.WithAttribute(telemetry.SpanAttrOrders, 42),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	assert.NotEmpty(t, telemetry.GetTraceID(ctx))
	assert.NotEmpty(t, telemetry.GetSpanID(ctx))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "pipeline.build", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "run-1", attrs[telemetry.SpanAttrRunID].AsString())
	assert.Equal(t, int64(42), attrs[telemetry.SpanAttrOrders].AsInt64())
}

func TestStartStageSpan(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, parent := telemetry.StartSpan(context.Background(), "pipeline.build")
	_, child := telemetry.StartStageSpan(ctx, "pipeline", "normalize")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "pipeline.normalize", spans[0].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "pipeline.load")
	telemetry.RecordError(span, errors.New("missing table"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "missing table", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestRecordError_NilIsNoop(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "pipeline.load")
	telemetry.RecordError(span, nil)
	telemetry.RecordError(nil, errors.New("ignored"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestSetAttributesAndEvents(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "dashboard.compute")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrFacet, "state",
		telemetry.SpanAttrSelected, []string{"SP", "RJ"},
		telemetry.SpanAttrCacheHit, true,
		42, "skipped: key is not a string",
	)
	telemetry.AddEvent(span, "facet.applied", telemetry.SpanAttrMatched, 3)
	telemetry.SetOK(span)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	s := spans[0]

	attrs := attrMap(s.Attributes())
	assert.Len(t, attrs, 3)
	assert.Equal(t, "state", attrs[telemetry.SpanAttrFacet].AsString())
	assert.Equal(t, []string{"SP", "RJ"}, attrs[telemetry.SpanAttrSelected].AsStringSlice())
	assert.True(t, attrs[telemetry.SpanAttrCacheHit].AsBool())

	require.Len(t, s.Events(), 1)
	assert.Equal(t, "facet.applied", s.Events()[0].Name)
	assert.Equal(t, int64(3), attrMap(s.Events()[0].Attributes)[telemetry.SpanAttrMatched].AsInt64())
	assert.Equal(t, codes.Ok, s.Status().Code)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))
}
