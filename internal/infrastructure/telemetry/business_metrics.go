package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics counts dispatches, rejected dispatches and closed batches.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	batchDispatchedTotal *Counter
	dispatchRejected     *Counter
	batchCompletedTotal  *Counter
	batchLineCount       *Histogram
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{meter: cfg.Meter, logger: logger}

	var err error
	if bm.batchDispatchedTotal, err = NewCounter(cfg.Meter,
		"cc_batch_dispatched_total", "Total number of inspection batches created", "{batches}"); err != nil {
		return nil, err
	}
	if bm.dispatchRejected, err = NewCounter(cfg.Meter,
		"cc_dispatch_rejected_total", "Total number of dispatch requests refused by a business rule", "{requests}"); err != nil {
		return nil, err
	}
	if bm.batchCompletedTotal, err = NewCounter(cfg.Meter,
		"cc_batch_completed_total", "Total number of inspection batches closed", "{batches}"); err != nil {
		return nil, err
	}
	if bm.batchLineCount, err = NewHistogram(cfg.Meter,
		"cc_batch_line_count", "Number of lines carried by a new batch", "{lines}", LineCountBuckets...); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordBatchDispatched records a new batch of the given kind and its size.
func (bm *BusinessMetrics) RecordBatchDispatched(ctx context.Context, tenantID uuid.UUID, kind string, lines int) {
	attrs := []attribute.KeyValue{AttrTenantID.String(tenantID.String()), AttrBatchKind.String(kind)}
	bm.batchDispatchedTotal.Inc(ctx, attrs...)
	bm.batchLineCount.Record(ctx, float64(lines), attrs...)
}

// RecordDispatchRejected records a dispatch refused with the given error code.
func (bm *BusinessMetrics) RecordDispatchRejected(ctx context.Context, tenantID uuid.UUID, kind, code string) {
	bm.dispatchRejected.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrBatchKind.String(kind),
		AttrErrorCode.String(code),
	)
}

// RecordBatchCompleted records a closed batch.
func (bm *BusinessMetrics) RecordBatchCompleted(ctx context.Context, tenantID uuid.UUID, kind string) {
	bm.batchCompletedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrBatchKind.String(kind),
	)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
