package telemetry

import (
	"context"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig configures database instrumentation
type DBConfig struct {
	TraceEnabled bool
	// LogFullSQL keeps bound query parameters on spans. Development only.
	LogFullSQL bool
	DBName     string
}

// InstrumentGorm adds query spans through otelgorm and registers
// connection pool gauges on mp. Either half is skipped when disabled.
func InstrumentGorm(db *gorm.DB, cfg DBConfig, mp *MeterProvider, logger *zap.Logger) error {
	if cfg.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return fmt.Errorf("failed to register otelgorm: %w", err)
		}
		logger.Info("Database tracing enabled", zap.Bool("log_full_sql", cfg.LogFullSQL))
	}

	if mp == nil || !mp.IsEnabled() {
		return nil
	}
	return registerPoolMetrics(db, mp.Meter("commission-engine/db"))
}

func registerPoolMetrics(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	open, err := meter.Int64ObservableGauge("db_pool_open_connections",
		metric.WithDescription("Open connections, in use plus idle"))
	if err != nil {
		return err
	}
	inUse, err := meter.Int64ObservableGauge("db_pool_in_use_connections",
		metric.WithDescription("Connections currently in use"))
	if err != nil {
		return err
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_count_total",
		metric.WithDescription("Connections waited for"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections))
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, open, inUse, waits)
	return err
}
