package ctxutil

import "context"

type traceKey struct{}

// Trace carries the correlation ids of one inbound request.
type Trace struct {
	TraceID   string
	RequestID string
}

func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

func TraceFrom(ctx context.Context) (Trace, bool) {
	if ctx == nil {
		return Trace{}, false
	}
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}

// LogFields returns trace_id/request_id pairs ready to append to a log call.
func LogFields(ctx context.Context) []interface{} {
	t, ok := TraceFrom(ctx)
	if !ok {
		return nil
	}
	var out []interface{}
	if t.TraceID != "" {
		out = append(out, "trace_id", t.TraceID)
	}
	if t.RequestID != "" {
		out = append(out, "request_id", t.RequestID)
	}
	return out
}
