package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetrics records query counts and latency, and observes the connection pool.
type DBMetrics struct {
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	slowThreshold  time.Duration
	registration   metric.Registration
	logger         *zap.Logger
}

type dbMetricsStartKey struct{}

// RegisterDBMetrics creates the database instruments and installs the gorm
// callbacks that feed them. Unregister on shutdown.
func RegisterDBMetrics(db *gorm.DB, meter metric.Meter, slowThreshold time.Duration, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if slowThreshold == 0 {
		slowThreshold = 200 * time.Millisecond
	}

	m := &DBMetrics{slowThreshold: slowThreshold, logger: logger}
	var err error
	if m.queryTotal, err = NewCounter(meter, "db_query_total", "Total number of database queries by operation type", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, "db_query_duration_seconds", "Database query latency in seconds", "s", DBDurationBuckets...); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Total number of slow database queries", "{query}"); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if m.registration, err = observePool(meter, sqlDB); err != nil {
		return nil, err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, dbMetricsStartKey{}, time.Now())
		}
	}
	if err := registerAround(db, "db_metrics", before, m.record); err != nil {
		return nil, err
	}
	return m, nil
}

func observePool(meter metric.Meter, sqlDB *sql.DB) (metric.Registration, error) {
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Number of connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	maxConns, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum number of open connections"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		return nil
	}, conns, maxConns)
}

func (m *DBMetrics) record(tx *gorm.DB) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(dbMetricsStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	op := operationOf(tx.Statement.SQL.String())
	attrs := []attribute.KeyValue{AttrDBOperation.String(op), AttrDBTable.String(tx.Statement.Table)}

	m.queryTotal.Inc(ctx, attrs...)
	m.queryDuration.Record(ctx, elapsed.Seconds(), attrs...)
	if elapsed > m.slowThreshold {
		m.slowQueryTotal.Inc(ctx, attrs...)
		m.logger.Warn("Slow query",
			zap.String("operation", op),
			zap.String("table", tx.Statement.Table),
			zap.Duration("elapsed", elapsed),
		)
	}
}

// Unregister stops observing the connection pool.
func (m *DBMetrics) Unregister() error {
	if m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}

func operationOf(statement string) string {
	statement = strings.TrimSpace(statement)
	if i := strings.IndexByte(statement, ' '); i > 0 {
		statement = statement[:i]
	}
	switch op := strings.ToUpper(statement); op {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return op
	default:
		return "OTHER"
	}
}
