package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/logger"
)

func newTestRouter(t *testing.T, deps *Deps, llm domain.LLMService) *Router {
	r, err := NewRouter(NewAgents(deps), llm, "openai/gpt-4o-mini", logger.NewTestLogger(t), deps.Now)
	require.NoError(t, err)
	return r
}

func TestRouter_KeywordRouting(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deps, _ := newTestDeps(t, ctrl)
	router := newTestRouter(t, deps, nil)

	tests := []struct {
		message string
		want    domain.AgentKind
	}{
		{"Show me the dashboard", domain.AgentDashboard},
		{"how's business this week?", domain.AgentDashboard},
		{"do we have any coupon codes running", domain.AgentProducts},
		{"hello there", domain.AgentChat},
		{"what's the commission rate for partner Ace Guns", domain.AgentVendor},
		{"list newsletter subscribers", domain.AgentCustomer},
		{"mark order #IR-1001 as completed", domain.AgentOrder},
		{"any new inquiries?", domain.AgentInquiry},
		{"list eligible commissions", domain.AgentCommission},
		{"show me the payout history", domain.AgentCommission},
		// dashboard is registered first, so its keyword wins over order
		{"order summary for today", domain.AgentDashboard},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			route, err := router.Route(context.Background(), tt.message, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, route.Agent.Kind())
			assert.Equal(t, RouteKeyword, route.Method)
		})
	}

	stats := router.Stats()
	assert.Equal(t, int64(len(tests)), stats.KeywordRoutes)
	assert.Equal(t, int64(2), stats.PerAgent[domain.AgentCommission])
	require.NotNil(t, stats.LastRoutedAt)
	assert.Equal(t, testNow, *stats.LastRoutedAt)
}

func TestRouter_LLMClassification(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		want       domain.AgentKind
		wantMethod string
	}{
		{"exact name", "commission", domain.AgentCommission, RouteLLM},
		{"name inside a sentence", "The best agent is: Inquiry.", domain.AgentInquiry, RouteLLM},
		{"first registered name wins", "order or dashboard", domain.AgentDashboard, RouteLLM},
		{"unknown reply falls back to chat", "weather", domain.AgentChat, RouteFallback},
		{"empty reply falls back to chat", "", domain.AgentChat, RouteFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			deps, m := newTestDeps(t, ctrl)
			router := newTestRouter(t, deps, m.llm)

			m.llm.EXPECT().Chat(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, req *domain.LLMChatRequest) (*domain.LLMChatResponse, error) {
					assert.Equal(t, "openai/gpt-4o-mini", req.Model)
					require.NotNil(t, req.Temperature)
					assert.Equal(t, 0.1, *req.Temperature)
					assert.Equal(t, 10, req.MaxTokens)
					for _, kind := range domain.AgentKinds {
						assert.Contains(t, req.SystemPrompt, string(kind))
					}
					require.Len(t, req.Messages, 1)
					assert.Equal(t, "something unusual", req.Messages[0].Content)
					return &domain.LLMChatResponse{Content: tt.reply}, nil
				})

			route, err := router.Route(context.Background(), "something unusual", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, route.Agent.Kind())
			assert.Equal(t, tt.wantMethod, route.Method)

			stats := router.Stats()
			assert.Zero(t, stats.KeywordRoutes)
			if tt.wantMethod == RouteLLM {
				assert.Equal(t, int64(1), stats.LLMRoutes)
			} else {
				assert.Equal(t, int64(1), stats.LLMFallbacks)
			}
		})
	}
}

func TestRouter_ClassifierErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deps, m := newTestDeps(t, ctrl)
	router := newTestRouter(t, deps, m.llm)

	llmErr := errors.New("openrouter: rate limited")
	m.llm.EXPECT().Chat(gomock.Any(), gomock.Any()).Return(nil, llmErr)

	route, err := router.Route(context.Background(), "something unusual", "")
	assert.Nil(t, route)
	assert.ErrorIs(t, err, llmErr)
	assert.Equal(t, int64(1), router.Stats().RoutingErrors)
}

func TestRouter_NoLLMFallsBackToChat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deps, _ := newTestDeps(t, ctrl)
	router := newTestRouter(t, deps, nil)

	route, err := router.Route(context.Background(), "something unusual", "")
	require.NoError(t, err)
	assert.Equal(t, domain.AgentChat, route.Agent.Kind())
	assert.Equal(t, RouteFallback, route.Method)
}

func TestRouter_StatsAreCopies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deps, _ := newTestDeps(t, ctrl)
	router := newTestRouter(t, deps, nil)

	_, err := router.Route(context.Background(), "dashboard", "")
	require.NoError(t, err)

	stats := router.Stats()
	stats.PerAgent[domain.AgentDashboard] = 99
	assert.Equal(t, int64(1), router.Stats().PerAgent[domain.AgentDashboard])
}

func TestNewRouter_RequiresChat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deps, _ := newTestDeps(t, ctrl)

	var agents []*Agent
	for _, a := range NewAgents(deps) {
		if a.Kind() != domain.AgentChat {
			agents = append(agents, a)
		}
	}
	_, err := NewRouter(agents, nil, "", logger.NewTestLogger(t), nil)
	assert.Error(t, err)
}

func TestRouter_ContextActionPicksOwningAgent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deps, _ := newTestDeps(t, ctrl)
	router := newTestRouter(t, deps, nil)

	tests := []struct {
		message    string
		action     string
		want       domain.AgentKind
		wantMethod string
	}{
		// "summary" is a dashboard keyword
		{"Commission summary", commissionStats, domain.AgentCommission, RouteAction},
		{"Top customers", customerTop, domain.AgentCustomer, RouteAction},
		{"Search the web", chatWebSearch, domain.AgentChat, RouteAction},
		{"Show me the dashboard", ActionCustom, domain.AgentDashboard, RouteKeyword},
		{"Show me the dashboard", "noSuchAction", domain.AgentDashboard, RouteKeyword},
	}
	for _, tt := range tests {
		t.Run(tt.message+"/"+tt.action, func(t *testing.T) {
			route, err := router.Route(context.Background(), tt.message, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, route.Agent.Kind())
			assert.Equal(t, tt.wantMethod, route.Method)
		})
	}

	stats := router.Stats()
	assert.Equal(t, int64(3), stats.ActionRoutes)
	assert.Equal(t, int64(2), stats.KeywordRoutes)
}

func TestRouter_EveryActionHasOneOwner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deps, _ := newTestDeps(t, ctrl)
	router := newTestRouter(t, deps, nil)

	for _, a := range NewAgents(deps) {
		for _, name := range a.strategy.actions {
			if name == ActionCustom {
				continue
			}
			owner, ok := router.byAction[name]
			require.True(t, ok, name)
			assert.Equal(t, a.Kind(), owner.Kind(), name)
		}
	}
	_, ok := router.byAction[ActionCustom]
	assert.False(t, ok)
}

func TestNewRouter_RejectsSharedAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deps, _ := newTestDeps(t, ctrl)

	agents := NewAgents(deps)
	dup := newAgent(&strategy{kind: domain.AgentKind("audit"), actions: []string{commissionStats}}, deps)
	_, err := NewRouter(append(agents, dup), nil, "", logger.NewTestLogger(t), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), commissionStats)
}
