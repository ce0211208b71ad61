package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/logger"
	"github.com/Ironclad/ironclad/pkg/tracing"
)

const (
	RouteAction   = "action"
	RouteKeyword  = "keyword"
	RouteLLM      = "llm"
	RouteFallback = "fallback"

	classifyTemperature = 0.1
	classifyMaxTokens   = 10
)

// Route is the routing decision for one message.
type Route struct {
	Agent  *Agent
	Method string
}

// Router picks an agent from an explicit action, then the keyword pass, and
// falls back to a short LLM classification when no agent claims the message.
type Router struct {
	agents   []*Agent
	byKind   map[domain.AgentKind]*Agent
	byAction map[string]*Agent
	fallback *Agent
	llm      domain.LLMService
	model    string
	logger   logger.Logger
	now      func() time.Time

	mu    sync.Mutex
	stats domain.RoutingStats
}

func NewRouter(agents []*Agent, llm domain.LLMService, model string, log logger.Logger, now func() time.Time) (*Router, error) {
	if now == nil {
		now = time.Now
	}
	r := &Router{
		agents:   agents,
		byKind:   make(map[domain.AgentKind]*Agent, len(agents)),
		byAction: map[string]*Agent{},
		llm:      llm,
		model:    model,
		logger:   log,
		now:      now,
		stats:    domain.RoutingStats{PerAgent: map[domain.AgentKind]int64{}},
	}
	for _, a := range agents {
		r.byKind[a.Kind()] = a
		// custom exists on most agents and says nothing about the owner.
		for _, name := range a.strategy.actions {
			if name == ActionCustom {
				continue
			}
			if owner, ok := r.byAction[name]; ok {
				return nil, fmt.Errorf("action %s is declared by both %s and %s", name, owner.Kind(), a.Kind())
			}
			r.byAction[name] = a
		}
	}
	r.fallback = r.byKind[domain.AgentChat]
	if r.fallback == nil {
		return nil, fmt.Errorf("router requires the %s agent", domain.AgentChat)
	}
	return r, nil
}

// Agent returns the agent registered for kind.
func (r *Router) Agent(kind domain.AgentKind) (*Agent, bool) {
	a, ok := r.byKind[kind]
	return a, ok
}

// Route sends a known action to the agent that declares it. Otherwise it
// runs the keyword pass in registration order, then the classifier. A
// classifier reply naming no agent routes to chat. A classifier error is
// returned to the caller.
func (r *Router) Route(ctx context.Context, message, action string) (*Route, error) {
	if a, ok := r.byAction[action]; ok {
		return r.record(ctx, a, RouteAction), nil
	}
	for _, a := range r.agents {
		if a.CanHandle(message) {
			return r.record(ctx, a, RouteKeyword), nil
		}
	}

	if r.llm == nil {
		return r.record(ctx, r.fallback, RouteFallback), nil
	}

	reply, err := r.classify(ctx, message)
	if err != nil {
		r.mu.Lock()
		r.stats.RoutingErrors++
		r.mu.Unlock()
		r.logger.WithField("error", err.Error()).Error("Failed to classify message")
		return nil, err
	}

	kind, ok := domain.MatchAgentKind(reply)
	if !ok {
		r.logger.WithField("reply", reply).Debug("Classifier reply named no agent, using chat")
		return r.record(ctx, r.fallback, RouteFallback), nil
	}
	a, ok := r.byKind[kind]
	if !ok {
		return r.record(ctx, r.fallback, RouteFallback), nil
	}
	return r.record(ctx, a, RouteLLM), nil
}

func (r *Router) classify(ctx context.Context, message string) (string, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "Router", "Classify")
	defer span.End()

	resp, err := r.llm.Chat(ctx, &domain.LLMChatRequest{
		Model:        r.model,
		SystemPrompt: classifierPrompt(r.agents),
		Messages:     []domain.LLMMessage{{Role: string(domain.RoleUser), Content: message}},
		Temperature:  domain.Float64Ptr(classifyTemperature),
		MaxTokens:    classifyMaxTokens,
	})
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

func classifierPrompt(agents []*Agent) string {
	names := make([]string, 0, len(agents))
	for _, a := range agents {
		names = append(names, string(a.Kind()))
	}
	return "You route messages for a firearms services admin app. " +
		"Reply with exactly one word, the best agent for the message, from: " +
		strings.Join(names, ", ") + ". " +
		"dashboard: business overview and alerts. products: catalog and discount codes. " +
		"chat: general conversation. vendor: partner stores. customer: customers and subscribers. " +
		"order: orders and shipping. inquiry: service inquiries and quotes. commission: partner commissions and payouts."
}

func (r *Router) record(ctx context.Context, a *Agent, method string) *Route {
	now := r.now()
	r.mu.Lock()
	switch method {
	case RouteAction:
		r.stats.ActionRoutes++
	case RouteKeyword:
		r.stats.KeywordRoutes++
	case RouteLLM:
		r.stats.LLMRoutes++
	case RouteFallback:
		r.stats.LLMFallbacks++
	}
	r.stats.PerAgent[a.Kind()]++
	r.stats.LastRoutedAt = &now
	r.mu.Unlock()

	tracing.RecordRoute(ctx, string(a.Kind()), method)
	r.logger.WithFields(map[string]interface{}{
		"agent":  string(a.Kind()),
		"method": method,
	}).Debug("Routed message")
	return &Route{Agent: a, Method: method}
}

// Stats returns a copy of the routing counters.
func (r *Router) Stats() domain.RoutingStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.stats
	out.PerAgent = make(map[domain.AgentKind]int64, len(r.stats.PerAgent))
	for k, v := range r.stats.PerAgent {
		out.PerAgent[k] = v
	}
	if r.stats.LastRoutedAt != nil {
		t := *r.stats.LastRoutedAt
		out.LastRoutedAt = &t
	}
	return out
}
