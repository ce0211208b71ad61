package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/trace"
)

type spanRecorder struct {
	mu    sync.Mutex
	spans []*trace.SpanData
}

func (r *spanRecorder) ExportSpan(s *trace.SpanData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spans = append(r.spans, s)
}

func (r *spanRecorder) find(name string) *trace.SpanData {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.spans {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func recordSpans(t *testing.T) *spanRecorder {
	t.Helper()
	rec := &spanRecorder{}
	trace.RegisterExporter(rec)
	trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})
	t.Cleanup(func() { trace.UnregisterExporter(rec) })
	return rec
}

func TestStartServiceSpan(t *testing.T) {
	rec := recordSpans(t)

	ctx, span := StartServiceSpan(context.Background(), "OrderAgent", "executeAction")
	assert.Equal(t, span, trace.FromContext(ctx))
	span.End()

	assert.NotNil(t, rec.find("OrderAgent.executeAction"))
}

func TestEndSpan(t *testing.T) {
	rec := recordSpans(t)

	_, span := trace.StartSpan(context.Background(), "ok")
	EndSpan(span, nil)
	_, span = trace.StartSpan(context.Background(), "failed")
	EndSpan(span, errors.New("convex unavailable"))

	require.NotNil(t, rec.find("ok"))
	assert.Equal(t, int32(trace.StatusCodeOK), rec.find("ok").Status.Code)
	require.NotNil(t, rec.find("failed"))
	assert.Equal(t, "convex unavailable", rec.find("failed").Status.Message)
}

func TestTraceMethodWithResult(t *testing.T) {
	rec := recordSpans(t)

	result, err := TraceMethodWithResult(context.Background(), "Router", "route", func(ctx context.Context) (string, error) {
		assert.NotNil(t, trace.FromContext(ctx))
		return "orders", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "orders", result)

	boom := errors.New("boom")
	_, err = TraceMethodWithResult(context.Background(), "Router", "classify", func(ctx context.Context) (int, error) {
		return 0, boom
	})
	assert.Equal(t, boom, err)
	require.NotNil(t, rec.find("Router.classify"))
	assert.Equal(t, "boom", rec.find("Router.classify").Status.Message)
}

func TestAddAttribute(t *testing.T) {
	rec := recordSpans(t)

	ctx, span := trace.StartSpan(context.Background(), "attrs")
	AddAttribute(ctx, "agent", "commission")
	AddAttribute(ctx, "count", 3)
	AddAttribute(ctx, "total", int64(12))
	AddAttribute(ctx, "streamed", true)
	AddAttribute(ctx, "confidence", 0.9)
	AddAttribute(ctx, "timeout", 2*time.Second)
	AddAttribute(ctx, "other", struct{ Name string }{"x"})
	span.End()

	data := rec.find("attrs")
	require.NotNil(t, data)
	assert.Equal(t, "commission", data.Attributes["agent"])
	assert.Equal(t, int64(3), data.Attributes["count"])
	assert.Equal(t, int64(12), data.Attributes["total"])
	assert.Equal(t, true, data.Attributes["streamed"])
	assert.Equal(t, 0.9, data.Attributes["confidence"])
	assert.Equal(t, "2s", data.Attributes["timeout"])
	assert.Equal(t, "{x}", data.Attributes["other"])

	// No span in context.
	AddAttribute(context.Background(), "key", "value")
}

func TestMarkSpanError(t *testing.T) {
	rec := recordSpans(t)

	ctx, span := trace.StartSpan(context.Background(), "marked")
	MarkSpanError(ctx, nil)
	MarkSpanError(ctx, errors.New("rate limited"))
	span.End()

	require.NotNil(t, rec.find("marked"))
	assert.Equal(t, "rate limited", rec.find("marked").Status.Message)

	MarkSpanError(context.Background(), errors.New("ignored"))
}

func TestNewTransport_NamesClientSpans(t *testing.T) {
	rec := recordSpans(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{Transport: NewTransport(http.DefaultTransport)}
	ctx, root := trace.StartSpan(context.Background(), "root")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL+"/api/query", nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	root.End()

	assert.Eventually(t, func() bool {
		return rec.find("POST /api/query") != nil
	}, time.Second, 10*time.Millisecond)
}
