package trace

import "context"

type contextKey int

const (
	requestIDKey contextKey = iota
	subjectGIDKey
)

// WithRequestID attaches a request-scoped identifier to ctx. [Begin] and
// [Op.End] include it as "request_id" when present.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request ID previously attached with
// [WithRequestID], if any.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// WithSubjectGID attaches the gid of the Model an operation acts on. Used by
// model, track, and replicate to correlate a span with the graph node it
// touched without threading the value through every call signature.
func WithSubjectGID(ctx context.Context, gid string) context.Context {
	return context.WithValue(ctx, subjectGIDKey, gid)
}

// SubjectGIDFrom returns the gid previously attached with [WithSubjectGID],
// if any.
func SubjectGIDFrom(ctx context.Context) (string, bool) {
	gid, ok := ctx.Value(subjectGIDKey).(string)
	return gid, ok
}
