package tracing

import (
	"context"
	"fmt"
	"net/http"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"
)

// StartServiceSpan starts a span named "service.method".
func StartServiceSpan(ctx context.Context, serviceName, methodName string) (context.Context, *trace.Span) {
	return trace.StartSpan(ctx, fmt.Sprintf("%s.%s", serviceName, methodName))
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span *trace.Span, err error) {
	if err != nil {
		span.SetStatus(trace.Status{
			Code:    trace.StatusCodeUnknown,
			Message: err.Error(),
		})
	}
	span.End()
}

// TraceMethodWithResult runs f inside a service span.
func TraceMethodWithResult[T any](
	ctx context.Context,
	serviceName,
	methodName string,
	f func(context.Context) (T, error),
) (T, error) {
	ctx, span := StartServiceSpan(ctx, serviceName, methodName)
	result, err := f(ctx)
	EndSpan(span, err)
	return result, err
}

// AddAttribute adds an attribute to the span in ctx, if there is one.
func AddAttribute(ctx context.Context, key string, value interface{}) {
	span := trace.FromContext(ctx)
	if span == nil {
		return
	}

	switch v := value.(type) {
	case string:
		span.AddAttributes(trace.StringAttribute(key, v))
	case int64:
		span.AddAttributes(trace.Int64Attribute(key, v))
	case int:
		span.AddAttributes(trace.Int64Attribute(key, int64(v)))
	case bool:
		span.AddAttributes(trace.BoolAttribute(key, v))
	case float64:
		span.AddAttributes(trace.Float64Attribute(key, v))
	case fmt.Stringer:
		span.AddAttributes(trace.StringAttribute(key, v.String()))
	default:
		span.AddAttributes(trace.StringAttribute(key, fmt.Sprintf("%v", v)))
	}
}

// MarkSpanError marks the span in ctx as failed.
func MarkSpanError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.FromContext(ctx)
	if span == nil {
		return
	}
	span.SetStatus(trace.Status{
		Code:    trace.StatusCodeUnknown,
		Message: err.Error(),
	})
}

// NewTransport returns an ochttp transport over base that names client spans
// "METHOD /path".
func NewTransport(base http.RoundTripper) *ochttp.Transport {
	return &ochttp.Transport{
		Base: base,
		FormatSpanName: func(req *http.Request) string {
			return fmt.Sprintf("%s %s", req.Method, req.URL.Path)
		},
	}
}
