package trace

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Op represents a running operation with automatic start/end logging.
//
// Op provides consistent operation boundary logging with automatic duration
// measurement and cancellation handling. It enforces the operation naming
// convention and prevents "forgot to log end" bugs.
//
// Create via [Begin]. It is safe to call methods on a nil *Op.
type Op struct {
	// ctx is stored to check for cancellation at End() time and to extract
	// the request and subject identifiers. This is an intentional exception
	// to the "don't store context" guideline: Op represents an operation
	// boundary that needs that context again at End(), which may run in a
	// defer far from where ctx was last in scope.
	ctx       context.Context //nolint:containedctx // see comment above
	logger    *slog.Logger
	name      string
	startTime time.Time
	ended     atomic.Bool
}

var activeOps atomic.Int64

// ActiveOps returns the number of [Op] spans currently open across the
// process. Intended for coarse liveness checks (is something stuck mid
// commit?), not precise accounting — nil-logger or disabled-level calls to
// [Begin] never increment it.
func ActiveOps() int64 {
	return activeOps.Load()
}

// Begin starts a new operation and logs at Debug level.
//
// Returns *Op (pointer) so nil checks are cheap. When logging is disabled
// (logger is nil or level is below Debug), Begin returns nil to achieve
// near-zero overhead (~1-2ns). It is safe to call methods on a nil *Op.
//
// Operation names should follow the format <package>.<type>.<operation>:
//   - model.model.setdata
//   - track.tracker.merge
//   - replicate.coordinator.commit
//
// The start log includes "op", "request_id" and "subject_gid" if present in
// context, and any additional attrs passed to Begin.
func Begin(ctx context.Context, logger *slog.Logger, name string, attrs ...slog.Attr) *Op {
	if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
		return nil
	}

	op := &Op{
		ctx:       ctx,
		logger:    logger,
		name:      name,
		startTime: time.Now(),
	}
	activeOps.Add(1)

	logAttrs := boundaryAttrs(ctx, name, attrs)
	logger.LogAttrs(ctx, slog.LevelDebug, "operation started", logAttrs...)

	return op
}

// End logs the operation completion. Safe to call multiple times.
//
// The first call logs at Debug level; subsequent calls are silently ignored
// (no log output). This prevents double-logging if End is called explicitly
// and also via defer.
//
// The end log includes "op", "request_id" and "subject_gid" if present,
// "elapsed_ms" (int64, machine-parseable), "duration" (human-readable),
// "ctx_err" if the context was cancelled, "error" if err is non-nil, and any
// additional attrs passed to End.
func (o *Op) End(err error, attrs ...slog.Attr) {
	if o == nil {
		return
	}
	if o.ended.Swap(true) {
		return
	}
	activeOps.Add(-1)

	if o.logger == nil || !o.logger.Enabled(o.ctx, slog.LevelDebug) {
		return
	}

	elapsed := time.Since(o.startTime)

	logAttrs := boundaryAttrs(o.ctx, o.name, nil)
	logAttrs = append(logAttrs,
		slog.Int64("elapsed_ms", elapsed.Milliseconds()),
		slog.Duration("duration", elapsed),
	)
	if ctxErr := o.ctx.Err(); ctxErr != nil {
		logAttrs = append(logAttrs, slog.String("ctx_err", ctxErr.Error()))
	}
	if err != nil {
		logAttrs = append(logAttrs, slog.String("error", err.Error()))
	}
	logAttrs = append(logAttrs, attrs...)

	o.logger.LogAttrs(o.ctx, slog.LevelDebug, "operation ended", logAttrs...)
}

// boundaryAttrs builds the common "op"/"request_id"/"subject_gid" prefix
// shared by the start and end log lines.
func boundaryAttrs(ctx context.Context, name string, extra []slog.Attr) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(extra)+3)
	attrs = append(attrs, slog.String("op", name))
	if reqID, ok := RequestIDFrom(ctx); ok {
		attrs = append(attrs, slog.String("request_id", reqID))
	}
	if gid, ok := SubjectGIDFrom(ctx); ok {
		attrs = append(attrs, slog.String("subject_gid", gid))
	}
	return append(attrs, extra...)
}
