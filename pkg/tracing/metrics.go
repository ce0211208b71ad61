package tracing

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	KeyAgent   = tag.MustNewKey("agent")
	KeyMethod  = tag.MustNewKey("route_method")
	KeyService = tag.MustNewKey("backend")
	KeyOutcome = tag.MustNewKey("outcome")
)

var (
	MeasureAgentRoutes    = stats.Int64("ironclad/agent/routes", "Messages routed to an agent", stats.UnitDimensionless)
	MeasureAgentLatency   = stats.Float64("ironclad/agent/latency", "End-to-end agent turn latency", stats.UnitMilliseconds)
	MeasureBackendCalls   = stats.Int64("ironclad/backend/attempts", "Outbound backend attempts", stats.UnitDimensionless)
	MeasureBackendLatency = stats.Float64("ironclad/backend/latency", "Outbound backend attempt latency", stats.UnitMilliseconds)
)

var latencyBuckets = view.Distribution(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000)

// Views returns the agent and backend views. Registering them twice is a
// no-op in OpenCensus.
func Views() []*view.View {
	return []*view.View{
		{
			Name:        "ironclad/agent/route_count",
			Measure:     MeasureAgentRoutes,
			Aggregation: view.Count(),
			TagKeys:     []tag.Key{KeyAgent, KeyMethod},
		},
		{
			Name:        "ironclad/agent/latency",
			Measure:     MeasureAgentLatency,
			Aggregation: latencyBuckets,
			TagKeys:     []tag.Key{KeyAgent},
		},
		{
			Name:        "ironclad/backend/attempt_count",
			Measure:     MeasureBackendCalls,
			Aggregation: view.Count(),
			TagKeys:     []tag.Key{KeyService, KeyOutcome},
		},
		{
			Name:        "ironclad/backend/latency",
			Measure:     MeasureBackendLatency,
			Aggregation: latencyBuckets,
			TagKeys:     []tag.Key{KeyService},
		},
	}
}

// RecordRoute counts one routing decision. method is "keyword", "llm" or
// "fallback".
func RecordRoute(ctx context.Context, agent, method string) {
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyAgent, agent), tag.Upsert(KeyMethod, method)},
		MeasureAgentRoutes.M(1),
	)
}

func RecordAgentLatency(ctx context.Context, agent string, d time.Duration) {
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyAgent, agent)},
		MeasureAgentLatency.M(float64(d)/float64(time.Millisecond)),
	)
}

// RecordBackendAttempt records a single outbound attempt. outcome is "ok" or
// an error kind.
func RecordBackendAttempt(ctx context.Context, service, outcome string, d time.Duration) {
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyService, service), tag.Upsert(KeyOutcome, outcome)},
		MeasureBackendCalls.M(1),
		MeasureBackendLatency.M(float64(d)/float64(time.Millisecond)),
	)
}
