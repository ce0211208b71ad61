package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/cache"
	"github.com/Ironclad/ironclad/pkg/logger"
	"github.com/Ironclad/ironclad/pkg/tracing"
)

const (
	defaultSessionTTL    = 24 * time.Hour
	sessionSweepInterval = time.Minute
)

// OrchestratorConfig wires the orchestrator. Deps.Services.LLM doubles as
// the routing classifier unless LLM is set.
type OrchestratorConfig struct {
	Deps         *Deps
	Store        domain.ConversationStore
	LLM          domain.LLMService
	RoutingModel string
	MaxHistory   int

	// SessionTTL matches the store's inactivity expiry. A session with no
	// save inside it no longer counts as active.
	SessionTTL time.Duration

	// RejectConcurrentTurns fails a second turn on a busy session with
	// ErrTurnInProgress instead of queueing it.
	RejectConcurrentTurns bool
}

// Orchestrator owns conversation history and routes each turn to an agent.
// It is the only writer of history: every turn holds its session lock from
// load to the final save.
type Orchestrator struct {
	router     *Router
	store      domain.ConversationStore
	snapshots  cache.Cache[domain.AgentSnapshot]
	maxHistory int
	sessionTTL time.Duration
	reject     bool
	logger     logger.Logger
	now        func() time.Time

	mu        sync.Mutex
	locks     map[string]*sessionLock
	stored    map[string]time.Time // sessionID -> history expiry
	lastSweep time.Time
}

// sessionLock is dropped from the map once refs reaches zero.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

var _ domain.AgentOrchestrator = (*Orchestrator)(nil)

func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Deps == nil {
		return nil, fmt.Errorf("agent deps are required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("conversation store is required")
	}
	deps := cfg.Deps
	now := deps.now
	classifier := cfg.LLM
	if classifier == nil {
		classifier = deps.Services.LLM
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = domain.MaxHistoryMessages
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}

	router, err := NewRouter(NewAgents(deps), classifier, cfg.RoutingModel, deps.Logger.WithField("component", "router"), now)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		router:     router,
		store:      cfg.Store,
		snapshots:  deps.Snapshots,
		maxHistory: maxHistory,
		sessionTTL: sessionTTL,
		reject:     cfg.RejectConcurrentTurns,
		logger:     deps.Logger,
		now:        now,
		locks:      map[string]*sessionLock{},
		stored:     map[string]time.Time{},
	}, nil
}

func (o *Orchestrator) Process(ctx context.Context, sessionID, message string, values map[string]string) (*domain.AgentOutput, error) {
	return o.turn(ctx, sessionID, message, values, nil)
}

// ProcessStream is Process with incremental delivery. Only streaming agents
// emit token deltas; the others deliver their response as one chunk.
func (o *Orchestrator) ProcessStream(ctx context.Context, sessionID, message string, values map[string]string, onChunk func(domain.AgentKind, string) error) (*domain.AgentOutput, error) {
	if onChunk == nil {
		onChunk = func(domain.AgentKind, string) error { return nil }
	}
	return o.turn(ctx, sessionID, message, values, onChunk)
}

func (o *Orchestrator) turn(ctx context.Context, sessionID, message string, values map[string]string, onChunk func(domain.AgentKind, string) error) (*domain.AgentOutput, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "Orchestrator", "Process")
	defer span.End()

	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.NewValidationError("session id is required")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.NewValidationError("message is required")
	}

	unlock, err := o.acquire(sessionID, !o.reject)
	if err != nil {
		return nil, err
	}
	defer unlock()

	history, err := o.store.Load(ctx, sessionID)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	history = append(history, domain.NewConversationMessage(domain.RoleUser, message, "", o.now()))
	if err := o.save(ctx, sessionID, history); err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	route, err := o.router.Route(ctx, message, values[ContextAction])
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}
	tracing.AddAttribute(ctx, "agent", string(route.Agent.Kind()))
	tracing.AddAttribute(ctx, "route", route.Method)

	input := &domain.AgentInput{
		Message: message,
		History: history,
		Context: values,
	}

	var out *domain.AgentOutput
	if onChunk == nil {
		out, err = route.Agent.Process(ctx, input)
	} else {
		kind := route.Agent.Kind()
		var streamed strings.Builder
		out, err = route.Agent.ProcessStream(ctx, input, func(chunk string) error {
			streamed.WriteString(chunk)
			return onChunk(kind, chunk)
		})
		if err == nil {
			out.Response = streamed.String()
		}
	}
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	history = append(history, domain.NewConversationMessage(domain.RoleAssistant, out.Response, out.Agent, o.now()))
	if err := o.save(ctx, sessionID, history); err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	o.logger.WithFields(map[string]interface{}{
		"session_id": sessionID,
		"agent":      string(out.Agent),
		"route":      route.Method,
	}).Info("Agent turn completed")
	return out, nil
}

func (o *Orchestrator) save(ctx context.Context, sessionID string, history []domain.ConversationMessage) error {
	if err := o.store.Save(ctx, sessionID, domain.TrimHistory(history, o.maxHistory)); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	now := o.now()
	o.mu.Lock()
	o.stored[sessionID] = now.Add(o.sessionTTL)
	if now.Sub(o.lastSweep) >= sessionSweepInterval {
		o.sweepLocked(now)
	}
	o.mu.Unlock()
	return nil
}

// sweepLocked drops sessions whose history has expired. o.mu must be held.
func (o *Orchestrator) sweepLocked(now time.Time) {
	for id, expires := range o.stored {
		if !now.Before(expires) {
			delete(o.stored, id)
		}
	}
	o.lastSweep = now
}

// acquire takes the session's turn lock, failing fast unless wait is set.
// The returned func releases it and forgets the lock when no other caller
// holds or waits on it.
func (o *Orchestrator) acquire(sessionID string, wait bool) (func(), error) {
	o.mu.Lock()
	l, ok := o.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		o.locks[sessionID] = l
	}
	l.refs++
	o.mu.Unlock()

	if !wait {
		if !l.mu.TryLock() {
			o.release(sessionID, l)
			return nil, &domain.ErrTurnInProgress{SessionID: sessionID}
		}
	} else {
		l.mu.Lock()
	}
	return func() {
		l.mu.Unlock()
		o.release(sessionID, l)
	}, nil
}

func (o *Orchestrator) release(sessionID string, l *sessionLock) {
	o.mu.Lock()
	defer o.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(o.locks, sessionID)
	}
}

func (o *Orchestrator) History(ctx context.Context, sessionID string) ([]domain.ConversationMessage, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.NewValidationError("session id is required")
	}
	history, err := o.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if history == nil {
		history = []domain.ConversationMessage{}
	}
	return history, nil
}

// ClearHistory waits for any in-flight turn on the session before deleting.
func (o *Orchestrator) ClearHistory(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return domain.NewValidationError("session id is required")
	}
	unlock, err := o.acquire(sessionID, true)
	if err != nil {
		return err
	}
	defer unlock()

	if err := o.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	o.mu.Lock()
	delete(o.stored, sessionID)
	o.mu.Unlock()
	o.logger.WithField("session_id", sessionID).Info("Conversation history cleared")
	return nil
}

func (o *Orchestrator) Stats() domain.RoutingStats {
	stats := o.router.Stats()
	stats.ActiveSessions = o.activeSessions()
	if o.snapshots != nil {
		stats.LastRefreshed = map[domain.AgentKind]time.Time{}
		for _, key := range o.snapshots.Keys() {
			if snap, ok := o.snapshots.Get(key); ok {
				stats.LastRefreshed[snap.Agent] = snap.RefreshedAt
			}
		}
	}
	return stats
}

// activeSessions counts sessions with a turn in flight or unexpired history.
func (o *Orchestrator) activeSessions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sweepLocked(o.now())
	n := len(o.stored)
	for id := range o.locks {
		if _, ok := o.stored[id]; !ok {
			n++
		}
	}
	return n
}
