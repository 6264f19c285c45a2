package telemetry_test

import (
	"context"
	"testing"

	"github.com/egp/construction-control/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{Logger: zap.NewNop()})
	require.Error(t, err)
	assert.Nil(t, bm)
	assert.Equal(t, "NewBusinessMetrics: meter cannot be nil", err.Error())
}

func TestBusinessMetrics_NoopMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: noop.NewMeterProvider().Meter("test"),
	})
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordBatchDispatched(ctx, uuid.New(), "quality", 3)
	bm.RecordDispatchRejected(ctx, uuid.New(), "property", "MISSING_VENDOR")
	bm.RecordBatchCompleted(ctx, uuid.New(), "quality")
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestBusinessMetrics_Recorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)

	ctx := context.Background()
	tenantID := uuid.New()
	bm.RecordBatchDispatched(ctx, tenantID, "quality", 4)
	bm.RecordBatchDispatched(ctx, tenantID, "quality", 2)
	bm.RecordDispatchRejected(ctx, tenantID, "quality", "OPEN_BATCH_EXISTS")
	bm.RecordBatchCompleted(ctx, tenantID, "property")

	metrics := collect(t, reader)

	dispatched, ok := metrics["cc_batch_dispatched_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, dispatched.DataPoints, 1)
	assert.Equal(t, int64(2), dispatched.DataPoints[0].Value)
	kind, _ := dispatched.DataPoints[0].Attributes.Value(telemetry.AttrBatchKind)
	assert.Equal(t, "quality", kind.AsString())

	rejected, ok := metrics["cc_dispatch_rejected_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	code, _ := rejected.DataPoints[0].Attributes.Value(telemetry.AttrErrorCode)
	assert.Equal(t, "OPEN_BATCH_EXISTS", code.AsString())

	lines, ok := metrics["cc_batch_line_count"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Equal(t, uint64(2), lines.DataPoints[0].Count)
	assert.Equal(t, 6.0, lines.DataPoints[0].Sum)

	completed, ok := metrics["cc_batch_completed_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), completed.DataPoints[0].Value)
}
