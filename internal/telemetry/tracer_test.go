package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	tp, err := NewTracerProvider(ctx, Config{Enabled: false, ServiceName: "wine-api"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.Enabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestTracerProvider_ExportsSpans(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()

	tp, err := newWithExporter(Config{Enabled: true, SamplingRatio: 1, ServiceName: "wine-api"}, exporter, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	_, span := tp.Tracer("test").Start(ctx, "create-winery")
	span.End()
	require.NoError(t, tp.ForceFlush(ctx))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "create-winery", spans[0].Name)

	var serviceName string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			serviceName = kv.Value.AsString()
		}
	}
	assert.Equal(t, "wine-api", serviceName)
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio   float64
		sampled bool
	}{
		{ratio: 1, sampled: true},
		{ratio: 0, sampled: false},
	}
	for _, tc := range tests {
		exporter := tracetest.NewInMemoryExporter()
		tp, err := newWithExporter(Config{Enabled: true, SamplingRatio: tc.ratio, ServiceName: "wine-api"}, exporter, zaptest.NewLogger(t))
		require.NoError(t, err)

		_, span := tp.Tracer("test").Start(context.Background(), "op")
		assert.Equal(t, tc.sampled, span.SpanContext().TraceFlags()&trace.FlagsSampled != 0)
		span.End()
		require.NoError(t, tp.Shutdown(context.Background()))
	}
}
