package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's statement log into slog with the same
// event/module/layer attributes the rest of the service uses.
type GormLogger struct {
	logger    *slog.Logger
	level     gormlogger.LogLevel
	slowQuery time.Duration
}

func NewGormLogger(logger *slog.Logger, slowQuery time.Duration) *GormLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormLogger{
		logger:    logger,
		level:     gormlogger.Warn,
		slowQuery: slowQuery,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.level = level
	return &next
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, args...), l.attrs("gorm_info")...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, args...), l.attrs("gorm_warn")...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, args...), l.attrs("gorm_error")...)
	}
}

// Trace logs failed statements and statements slower than the threshold.
// Not-found lookups are expected and stay silent.
func (l *GormLogger) Trace(
	ctx context.Context,
	begin time.Time,
	fc func() (sql string, rowsAffected int64),
	err error,
) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.logger.ErrorContext(ctx, "sql statement failed",
			append(l.attrs("gorm_query_failed"),
				"sql", sql,
				"rows", rows,
				"elapsed_ms", elapsed.Milliseconds(),
				"error", err.Error(),
			)...,
		)
	case l.slowQuery > 0 && elapsed > l.slowQuery && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.WarnContext(ctx, "slow sql statement",
			append(l.attrs("gorm_query_slow"),
				"sql", sql,
				"rows", rows,
				"elapsed_ms", elapsed.Milliseconds(),
				"threshold_ms", l.slowQuery.Milliseconds(),
			)...,
		)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.DebugContext(ctx, "sql statement",
			append(l.attrs("gorm_query"),
				"sql", sql,
				"rows", rows,
				"elapsed_ms", elapsed.Milliseconds(),
			)...,
		)
	}
}

func (l *GormLogger) attrs(event string) []any {
	return []any{
		"event", event,
		"module", "internal/platform/db",
		"layer", "platform",
	}
}
