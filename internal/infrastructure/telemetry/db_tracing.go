package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound variables in span statements
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin registers otelgorm and flags slow or failed statements on
// the active span.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

// RegisterOtelGorm registers otelgorm and the timing callbacks on db.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	if err := registerAround(db, "otel_timing", before, p.afterQuery); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func (p *DBTracingPlugin) afterQuery(tx *gorm.DB) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}

	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}

// registerAround registers before and after callbacks for every gorm
// processor under the given name prefix.
func registerAround(db *gorm.DB, prefix string, before, after func(*gorm.DB)) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register(prefix+":before_create", before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register(prefix+":after_create", after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register(prefix+":before_query", before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register(prefix+":after_query", after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register(prefix+":before_update", before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register(prefix+":after_update", after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register(prefix+":before_delete", before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register(prefix+":after_delete", after); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register(prefix+":before_row", before); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register(prefix+":after_row", after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register(prefix+":before_raw", before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register(prefix+":after_raw", after)
}
