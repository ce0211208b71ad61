// Package agent implements the specialised admin agents and the
// orchestrator that routes each turn to one of them.
package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/cache"
	"github.com/Ironclad/ironclad/pkg/liquid"
	"github.com/Ironclad/ironclad/pkg/logger"
	"github.com/Ironclad/ironclad/pkg/tracing"
)

const (
	// ActionCustom carries the raw message when no rule matched.
	ActionCustom = "custom"

	// ContextAction lets a client pick an action directly, usually the
	// ActionID of a suggestion it displayed. The router sends the turn to
	// the agent that declares it.
	ContextAction = "action"

	confidenceSpecific = 0.9
	confidenceCustom   = 0.7

	chatHistoryWindow = 20
	snapshotTTL       = 24 * time.Hour
)

// Action is the resolved intent of a message within one agent.
type Action struct {
	Name   string
	Params map[string]string
}

func (a Action) Param(key string) string {
	if a.Params == nil {
		return ""
	}
	return a.Params[key]
}

func newAction(name string, params ...string) Action {
	a := Action{Name: name, Params: map[string]string{}}
	for i := 0; i+1 < len(params); i += 2 {
		if params[i+1] != "" {
			a.Params[params[i]] = params[i+1]
		}
	}
	return a
}

// Result is what an action fetched or changed. Bindings feed the context
// template; Data is returned to the client as is.
type Result struct {
	Bindings map[string]interface{}
	Data     map[string]interface{}
	Tools    []string
}

func newResult() *Result {
	return &Result{
		Bindings: map[string]interface{}{},
		Data:     map[string]interface{}{},
	}
}

func (r *Result) use(tools ...string) {
	for _, t := range tools {
		if !containsString(r.Tools, t) {
			r.Tools = append(r.Tools, t)
		}
	}
}

// set writes a value to both the template bindings and the client data.
func (r *Result) set(key string, value interface{}) {
	r.Bindings[key] = value
	r.Data[key] = value
}

// Deps are the collaborators shared by all agents.
type Deps struct {
	Repos          domain.Repositories
	Services       domain.Services
	Renderer       *liquid.Renderer
	Snapshots      cache.Cache[domain.AgentSnapshot]
	Logger         logger.Logger
	Now            func() time.Time
	KnowledgeTable string
	ProductTable   string
	TopK           int
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Agent runs one strategy through the shared pipeline.
type Agent struct {
	strategy *strategy
	deps     *Deps
	logger   logger.Logger
}

func newAgent(s *strategy, deps *Deps) *Agent {
	return &Agent{
		strategy: s,
		deps:     deps,
		logger:   deps.Logger.WithField("agent", string(s.kind)),
	}
}

func (a *Agent) Kind() domain.AgentKind {
	return a.strategy.kind
}

// Streams reports whether the agent emits token deltas.
func (a *Agent) Streams() bool {
	return a.strategy.streaming
}

// CanHandle is a case-insensitive OR over the agent's keywords.
func (a *Agent) CanHandle(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range a.strategy.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DetermineAction honours an explicit context action, then the ordered
// rules, then the default.
func (a *Agent) DetermineAction(in *domain.AgentInput) Action {
	action := a.strategy.resolve(in)
	if name := in.ContextValue(ContextAction); name != "" && containsString(a.strategy.actions, name) {
		action.Name = name
	}
	if action.Name == "" {
		action.Name = a.strategy.defaultAction
	}
	if action.Params == nil {
		action.Params = map[string]string{}
	}
	if action.Name == ActionCustom {
		action.Params["message"] = in.Message
	}
	return action
}

func (a *Agent) ExecuteAction(ctx context.Context, action Action, in *domain.AgentInput) (*Result, error) {
	res, err := a.strategy.execute(ctx, a, action, in)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = newResult()
	}
	a.recordSnapshot(action, res)
	return res, nil
}

// RenderContext lays out the result as the text block given to the LLM.
func (a *Agent) RenderContext(action Action, in *domain.AgentInput, res *Result) (string, error) {
	bindings := make(map[string]interface{}, len(res.Bindings)+3)
	for k, v := range res.Bindings {
		bindings[k] = v
	}
	bindings["action"] = action.Name
	bindings["message"] = in.Message
	bindings["today"] = a.deps.now().Format("January 2, 2006")

	out, err := a.deps.Renderer.Render(string(a.strategy.kind), a.strategy.template, bindings)
	if err != nil {
		return "", fmt.Errorf("failed to render %s context: %w", a.strategy.kind, err)
	}
	return compactBlankLines(out), nil
}

// GenerateResponse asks the LLM to answer from the rendered context. Without
// an LLM the context itself is the response. onChunk is only used by
// streaming agents; pass nil for a single reply.
func (a *Agent) GenerateResponse(ctx context.Context, action Action, in *domain.AgentInput, res *Result, onChunk func(string) error) (*domain.AgentOutput, error) {
	rendered, err := a.RenderContext(action, in, res)
	if err != nil {
		return nil, err
	}

	out := &domain.AgentOutput{
		Agent:            a.strategy.kind,
		ToolsUsed:        res.Tools,
		SuggestedActions: a.strategy.suggest(action, res),
		Confidence:       confidenceSpecific,
		Data:             res.Data,
	}
	if action.Name == ActionCustom {
		out.Confidence = confidenceCustom
	}
	if out.ToolsUsed == nil {
		out.ToolsUsed = []string{}
	}
	if out.SuggestedActions == nil {
		out.SuggestedActions = []domain.SuggestedAction{}
	}

	llm := a.deps.Services.LLM
	if llm == nil {
		out.Response = rendered
		if onChunk != nil {
			if err := onChunk(rendered); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	req := a.chatRequest(in, rendered)
	out.ToolsUsed = appendTool(out.ToolsUsed, "openrouter:chat")

	if onChunk == nil || !a.strategy.streaming {
		resp, err := llm.Chat(ctx, req)
		if err != nil {
			return nil, err
		}
		out.Response = resp.Content
		if onChunk != nil {
			if err := onChunk(out.Response); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	var b strings.Builder
	err = llm.StreamChat(ctx, req, func(ev domain.LLMChatEvent) error {
		if ev.Type != "text" || ev.Content == "" {
			return nil
		}
		b.WriteString(ev.Content)
		return onChunk(ev.Content)
	})
	if err != nil {
		return nil, err
	}
	out.Response = b.String()
	return out, nil
}

func (a *Agent) chatRequest(in *domain.AgentInput, rendered string) *domain.LLMChatRequest {
	system := a.strategy.prompt
	if rendered != "" {
		system += "\n\n# Context\n" + rendered
	}

	var messages []domain.LLMMessage
	if a.strategy.withHistory {
		history := domain.TrimHistory(in.History, chatHistoryWindow)
		messages = domain.HistoryToLLM(history)
		if len(messages) == 0 || messages[len(messages)-1].Role != string(domain.RoleUser) ||
			messages[len(messages)-1].Content != in.Message {
			messages = append(messages, domain.LLMMessage{Role: string(domain.RoleUser), Content: in.Message})
		}
	} else {
		messages = []domain.LLMMessage{{Role: string(domain.RoleUser), Content: in.Message}}
	}

	return &domain.LLMChatRequest{
		SystemPrompt: system,
		Messages:     messages,
	}
}

// Process runs the full pipeline and returns one response.
func (a *Agent) Process(ctx context.Context, in *domain.AgentInput) (*domain.AgentOutput, error) {
	return a.run(ctx, in, nil)
}

// ProcessStream runs the pipeline and calls onChunk with token deltas for
// streaming agents, or once with the whole response for the others.
func (a *Agent) ProcessStream(ctx context.Context, in *domain.AgentInput, onChunk func(string) error) (*domain.AgentOutput, error) {
	if onChunk == nil {
		onChunk = func(string) error { return nil }
	}
	return a.run(ctx, in, onChunk)
}

func (a *Agent) run(ctx context.Context, in *domain.AgentInput, onChunk func(string) error) (*domain.AgentOutput, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "Agent", string(a.strategy.kind))
	defer span.End()
	start := time.Now()
	defer func() {
		tracing.RecordAgentLatency(ctx, string(a.strategy.kind), time.Since(start))
	}()

	action := a.DetermineAction(in)
	tracing.AddAttribute(ctx, "agent.action", action.Name)

	res, err := a.ExecuteAction(ctx, action, in)
	if err != nil {
		a.logger.WithFields(map[string]interface{}{
			"action": action.Name,
			"error":  err.Error(),
		}).Error("Agent action failed")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	out, err := a.GenerateResponse(ctx, action, in, res, onChunk)
	if err != nil {
		a.logger.WithFields(map[string]interface{}{
			"action": action.Name,
			"error":  err.Error(),
		}).Error("Failed to generate agent response")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	a.logger.WithFields(map[string]interface{}{
		"action": action.Name,
		"tools":  len(out.ToolsUsed),
	}).Debug("Agent turn completed")
	return out, nil
}

func (a *Agent) recordSnapshot(action Action, res *Result) {
	if a.deps.Snapshots == nil {
		return
	}
	a.deps.Snapshots.Set(string(a.strategy.kind), domain.AgentSnapshot{
		Agent:       a.strategy.kind,
		Action:      action.Name,
		RefreshedAt: a.deps.now(),
		Data:        res.Data,
	}, snapshotTTL)
}

var blankLines = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)

func compactBlankLines(s string) string {
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func appendTool(tools []string, tool string) []string {
	if containsString(tools, tool) {
		return tools
	}
	return append(tools, tool)
}
