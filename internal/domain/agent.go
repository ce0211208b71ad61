package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

//go:generate mockgen -destination mocks/mock_conversation_store.go -package mocks github.com/Ironclad/ironclad/internal/domain ConversationStore
//go:generate mockgen -destination mocks/mock_agent_orchestrator.go -package mocks github.com/Ironclad/ironclad/internal/domain AgentOrchestrator

// AgentKind names one of the specialised agents.
type AgentKind string

const (
	AgentDashboard  AgentKind = "dashboard"
	AgentProducts   AgentKind = "products"
	AgentChat       AgentKind = "chat"
	AgentVendor     AgentKind = "vendor"
	AgentCustomer   AgentKind = "customer"
	AgentOrder      AgentKind = "order"
	AgentInquiry    AgentKind = "inquiry"
	AgentCommission AgentKind = "commission"
)

// AgentKinds is the registration order. Keyword routing and classifier
// reply matching both scan in this order and stop at the first hit.
var AgentKinds = []AgentKind{
	AgentDashboard,
	AgentProducts,
	AgentChat,
	AgentVendor,
	AgentCustomer,
	AgentOrder,
	AgentInquiry,
	AgentCommission,
}

func (k AgentKind) Valid() bool {
	return containsStatus(AgentKinds, k)
}

func (k AgentKind) DisplayName() string {
	switch k {
	case AgentDashboard:
		return "Dashboard"
	case AgentProducts:
		return "Products"
	case AgentChat:
		return "Assistant"
	case AgentVendor:
		return "Vendors"
	case AgentCustomer:
		return "Customers"
	case AgentOrder:
		return "Orders"
	case AgentInquiry:
		return "Inquiries"
	case AgentCommission:
		return "Commissions"
	}
	return string(k)
}

// MatchAgentKind returns the first kind, in registration order, whose name
// appears in s. ok is false when none does.
func MatchAgentKind(s string) (AgentKind, bool) {
	lower := strings.ToLower(s)
	for _, k := range AgentKinds {
		if strings.Contains(lower, string(k)) {
			return k, true
		}
	}
	return "", false
}

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

type ConversationMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Agent     AgentKind   `json:"agent,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func NewConversationMessage(role MessageRole, content string, agent AgentKind, now time.Time) ConversationMessage {
	return ConversationMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Agent:     agent,
		CreatedAt: now,
	}
}

// MaxHistoryMessages caps persisted history per session.
const MaxHistoryMessages = 100

// TrimHistory keeps the last n messages.
func TrimHistory(history []ConversationMessage, n int) []ConversationMessage {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

type AgentInput struct {
	Message string                `json:"message"`
	History []ConversationMessage `json:"history,omitempty"`
	Context map[string]string     `json:"context,omitempty"`
}

// ContextValue reads a context key, tolerating a nil map.
func (in *AgentInput) ContextValue(key string) string {
	if in.Context == nil {
		return ""
	}
	return in.Context[key]
}

type SuggestedAction struct {
	Title    string `json:"title"`
	ActionID string `json:"action_id"`
	Icon     string `json:"icon"`
}

type AgentOutput struct {
	Agent            AgentKind              `json:"agent"`
	Response         string                 `json:"response"`
	ToolsUsed        []string               `json:"tools_used"`
	SuggestedActions []SuggestedAction      `json:"suggested_actions"`
	Confidence       float64                `json:"confidence"`
	Data             map[string]interface{} `json:"data,omitempty"`
}

// ProcessRequest is the payload of agent.process and agent.stream.
type ProcessRequest struct {
	SessionID string            `json:"session_id,omitempty" valid:"optional,uuid"`
	Message   string            `json:"message" valid:"required,stringlength(1|4000)"`
	Context   map[string]string `json:"context,omitempty" valid:"-"`
}

func (r *ProcessRequest) Validate() error {
	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return NewValidationError("message is required")
	}
	if _, err := govalidator.ValidateStruct(r); err != nil {
		return NewValidationError(fmt.Sprintf("invalid request: %v", err))
	}
	return nil
}

type ProcessResponse struct {
	SessionID string       `json:"session_id"`
	Output    *AgentOutput `json:"output"`
}

// AgentStreamEvent is written as one SSE data line.
type AgentStreamEvent struct {
	Type      string       `json:"type"` // "start", "chunk", "done", "error"
	SessionID string       `json:"session_id,omitempty"`
	Agent     AgentKind    `json:"agent,omitempty"`
	Content   string       `json:"content,omitempty"`
	Output    *AgentOutput `json:"output,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// RoutingStats counts how turns were routed since start.
type RoutingStats struct {
	ActionRoutes   int64               `json:"action_routes"`
	KeywordRoutes  int64               `json:"keyword_routes"`
	LLMRoutes      int64               `json:"llm_routes"`
	LLMFallbacks   int64               `json:"llm_fallbacks"`
	RoutingErrors  int64               `json:"routing_errors"`
	PerAgent       map[AgentKind]int64 `json:"per_agent"`
	LastRoutedAt   *time.Time          `json:"last_routed_at,omitempty"`
	ActiveSessions int                 `json:"active_sessions"`

	// LastRefreshed is when each agent last fetched fresh data.
	LastRefreshed map[AgentKind]time.Time `json:"last_refreshed,omitempty"`
}

// AgentSnapshot records the last successful fetch of an agent. It is
// reporting only and never used as a data source.
type AgentSnapshot struct {
	Agent       AgentKind              `json:"agent"`
	Action      string                 `json:"action"`
	RefreshedAt time.Time              `json:"refreshed_at"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// ConversationStore persists per-session history. Only the orchestrator
// writes to it, while holding the session turn lock.
type ConversationStore interface {
	Load(ctx context.Context, sessionID string) ([]ConversationMessage, error)
	Save(ctx context.Context, sessionID string, history []ConversationMessage) error
	Delete(ctx context.Context, sessionID string) error
}

// AgentOrchestrator is the entry point used by the HTTP layer.
type AgentOrchestrator interface {
	Process(ctx context.Context, sessionID, message string, values map[string]string) (*AgentOutput, error)
	ProcessStream(ctx context.Context, sessionID, message string, values map[string]string, onChunk func(AgentKind, string) error) (*AgentOutput, error)
	History(ctx context.Context, sessionID string) ([]ConversationMessage, error)
	ClearHistory(ctx context.Context, sessionID string) error
	Stats() RoutingStats
}
