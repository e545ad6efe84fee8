package updater

import (
	"context"
	"time"
)

// executionContextKeyType is the type for the context key to avoid collisions
type executionContextKeyType struct{}

var executionContextKey = executionContextKeyType{}

// executionContext aggregates per-request options that affect statement execution.
type executionContext struct {
	logger       *loggingConfig
	allowNoWhere bool
}

func withExecutionContext(ctx context.Context) (context.Context, *executionContext) {
	if ec := extractExecutionContext(ctx); ec != nil {
		// settings on a derived context never reach its parent
		clone := *ec
		return context.WithValue(ctx, executionContextKey, &clone), &clone
	}

	ec := &executionContext{}

	return context.WithValue(ctx, executionContextKey, ec), ec
}

func extractExecutionContext(ctx context.Context) *executionContext {
	if ctx == nil {
		return nil
	}

	if value := ctx.Value(executionContextKey); value != nil {
		ec, ok := value.(*executionContext)
		if !ok {
			panic("invalid type stored in context for executionContextKey")
		}

		return ec
	}

	return nil
}

// WithLogger stores a query log sink on the context. Every statement the updater
// runs with this context is reported to logger.
func WithLogger(ctx context.Context, logger LoggerFunc, cfg ...LoggerOpt) context.Context {
	ctx, ec := withExecutionContext(ctx)

	var opt LoggerOpt
	if len(cfg) > 0 {
		opt = cfg[0]
	}

	if opt.IncludeStack && opt.StackDepth <= 0 {
		opt.StackDepth = 16
	}

	if opt.SlowQueryThreshold < 0 {
		opt.SlowQueryThreshold = 0
	}

	ec.logger = &loggingConfig{
		logger:             logger,
		includeStack:       opt.IncludeStack,
		stackDepth:         opt.StackDepth,
		slowQueryThreshold: opt.SlowQueryThreshold,
	}

	return ctx
}

// WithAllowingNoWhereUpdate lets statements without a row condition through the WHERE guard.
func WithAllowingNoWhereUpdate(ctx context.Context) context.Context {
	ctx, ec := withExecutionContext(ctx)
	ec.allowNoWhere = true

	return ctx
}

// SlowQueryThreshold returns the threshold configured with WithLogger, or zero.
func SlowQueryThreshold(ctx context.Context) time.Duration {
	ec := extractExecutionContext(ctx)
	if ec == nil || ec.logger == nil {
		return 0
	}

	return ec.logger.slowQueryThreshold
}
