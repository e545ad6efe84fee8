package updater

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// loggingConfig controls query logging behaviour stored on context.
type loggingConfig struct {
	logger             LoggerFunc
	includeStack       bool
	stackDepth         int
	slowQueryThreshold time.Duration
}

// LoggerOpt configures optional logger behaviour passed to WithLogger.
type LoggerOpt struct {
	IncludeStack bool
	StackDepth   int
	// SlowQueryThreshold marks entries that ran at least this long as Slow. Zero disables it.
	SlowQueryThreshold time.Duration
}

// LoggerFunc receives QueryLogEntry events.
type LoggerFunc func(context.Context, QueryLogEntry)

// QueryLogEntry represents a single statement execution.
type QueryLogEntry struct {
	Table        string
	SQL          string
	Dialect      string
	Batch        int
	Batches      int
	StartAt      time.Time
	EndAt        time.Time
	Duration     time.Duration
	RowsAffected int64
	Slow         bool
	StackTrace   []runtime.Frame
	Error        string
}

// QueryLogMetadata describes immutable attributes passed to the QueryLogger.
type QueryLogMetadata struct {
	Table   string
	Dialect string
	Batch   int
	Batches int
}

// QueryLogger coordinates the logging of one statement.
type QueryLogger struct {
	cfg          *loggingConfig
	startAt      time.Time
	sql          string
	rowsAffected int64
	err          error
	now          func() time.Time
}

// QueryLoggerFromContext returns a logger when WithLogger configured one, otherwise nil.
// All QueryLogger methods are no-ops on nil.
func QueryLoggerFromContext(ctx context.Context) *QueryLogger {
	ec := extractExecutionContext(ctx)
	if ec == nil || ec.logger == nil || ec.logger.logger == nil {
		return nil
	}

	return &QueryLogger{
		cfg:     ec.logger,
		startAt: time.Now(),
		now:     time.Now,
	}
}

// SetQuery captures the SQL text to be logged.
func (l *QueryLogger) SetQuery(sql string) {
	if l == nil {
		return
	}

	l.sql = sql
}

// SetRowsAffected records the driver reported row count.
func (l *QueryLogger) SetRowsAffected(n int64) {
	if l == nil {
		return
	}

	l.rowsAffected = n
}

// SetErr records the last error to be logged.
func (l *QueryLogger) SetErr(err error) {
	if l == nil {
		return
	}

	l.err = err
}

// Write finalizes the entry and hands it to the configured sink.
func (l *QueryLogger) Write(ctx context.Context, metaProvider func() QueryLogMetadata) {
	if l == nil {
		return
	}

	metadata := metaProvider()

	entry := QueryLogEntry{
		Table:        metadata.Table,
		Dialect:      metadata.Dialect,
		Batch:        metadata.Batch,
		Batches:      metadata.Batches,
		SQL:          l.sql,
		RowsAffected: l.rowsAffected,
		StartAt:      l.startAt,
		EndAt:        l.now(),
	}
	entry.Duration = entry.EndAt.Sub(entry.StartAt)

	if threshold := l.cfg.slowQueryThreshold; threshold > 0 && entry.Duration >= threshold {
		entry.Slow = true
	}

	if l.err != nil {
		entry.Error = l.err.Error()
	}

	if l.cfg.includeStack {
		entry.StackTrace = captureStackTrace(l.cfg.stackDepth)
	}

	l.cfg.logger(ctx, entry)
}

// SlogLogger reports entries to logger: errors at Error level, slow statements at Warn, the rest at Debug.
func SlogLogger(logger *slog.Logger) LoggerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, entry QueryLogEntry) {
		attrs := []slog.Attr{
			slog.String("table", entry.Table),
			slog.String("dialect", entry.Dialect),
			slog.Int("batch", entry.Batch),
			slog.Int("batches", entry.Batches),
			slog.Duration("duration", entry.Duration),
			slog.Int64("rows_affected", entry.RowsAffected),
			slog.String("sql", entry.SQL),
		}

		switch {
		case entry.Error != "":
			attrs = append(attrs, slog.String("error", entry.Error))
			logger.LogAttrs(ctx, slog.LevelError, "batch update failed", attrs...)
		case entry.Slow:
			logger.LogAttrs(ctx, slog.LevelWarn, "slow batch update", attrs...)
		default:
			logger.LogAttrs(ctx, slog.LevelDebug, "batch update", attrs...)
		}
	}
}

func captureStackTrace(depth int) []runtime.Frame {
	if depth <= 0 {
		depth = 16
	}

	pcs := make([]uintptr, depth)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var result []runtime.Frame

	for {
		frame, more := frames.Next()
		result = append(result, frame)

		if !more {
			break
		}
	}

	return result
}
