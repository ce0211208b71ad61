package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/apperror"
	"github.com/Ironclad/ironclad/pkg/httpclient"
	"github.com/Ironclad/ironclad/pkg/logger"
	"github.com/Ironclad/ironclad/pkg/tracing"
)

const openRouterService = "openrouter"

// maxSSELine bounds a single SSE line; completions chunks are small but
// provider error payloads can be long.
const maxSSELine = 1024 * 1024

// LLMServiceConfig contains configuration for the LLM service
type LLMServiceConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	AppTitle       string
	Referer        string
	Temperature    float64
	MaxTokens      int
	RequestTimeout time.Duration
	StreamTimeout  time.Duration
	RequestsPerSec float64
	Retry          httpclient.Policy
	Transport      http.RoundTripper
	Logger         logger.Logger
}

// LLMService talks to OpenRouter's OpenAI-compatible chat completions API.
type LLMService struct {
	baseURL     string
	apiKey      string
	model       string
	appTitle    string
	referer     string
	temperature float64
	maxTokens   int
	http        *httpclient.Client
	stream      *httpclient.Client
	logger      logger.Logger
}

var _ domain.LLMService = (*LLMService)(nil)

// NewLLMService creates a new LLM service
func NewLLMService(cfg LLMServiceConfig) *LLMService {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 120 * time.Second
	}
	streamTimeout := cfg.StreamTimeout
	if streamTimeout <= 0 {
		streamTimeout = 300 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}

	return &LLMService{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		appTitle:    cfg.AppTitle,
		referer:     cfg.Referer,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		http: httpclient.New(openRouterService, cfg.Retry, cfg.Logger,
			httpclient.WithHTTPClient(&http.Client{Timeout: requestTimeout, Transport: cfg.Transport}),
			httpclient.WithRateLimit(cfg.RequestsPerSec, 1),
		),
		stream: httpclient.New(openRouterService, cfg.Retry, cfg.Logger,
			httpclient.WithHTTPClient(&http.Client{Timeout: streamTimeout, Transport: cfg.Transport}),
			httpclient.WithRateLimit(cfg.RequestsPerSec, 1),
		),
		logger: cfg.Logger,
	}
}

type completionRequest struct {
	Model       string              `json:"model"`
	Messages    []domain.LLMMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Stream      bool                `json:"stream"`
}

func (s *LLMService) payload(req *domain.LLMChatRequest, stream bool) ([]byte, string, error) {
	model := req.Model
	if model == "" {
		model = s.model
	}
	temperature := s.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = s.maxTokens
	}
	body, err := json.Marshal(completionRequest{
		Model:       model,
		Messages:    req.WireMessages(),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      stream,
	})
	return body, model, err
}

func (s *LLMService) newRequest(body []byte, stream bool) httpclient.RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		if s.appTitle != "" {
			req.Header.Set("X-Title", s.appTitle)
		}
		if s.referer != "" {
			req.Header.Set("HTTP-Referer", s.referer)
		}
		if stream {
			req.Header.Set("Accept", "text/event-stream")
		}
		return req, nil
	}
}

// Chat sends one non-streaming completion request.
func (s *LLMService) Chat(ctx context.Context, req *domain.LLMChatRequest) (*domain.LLMChatResponse, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "LLMService", "Chat")
	defer span.End()

	if err := req.Validate(); err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, apperror.InvalidInput(openRouterService, err.Error())
	}

	body, model, err := s.payload(req, false)
	if err != nil {
		return nil, apperror.InvalidInput(openRouterService, fmt.Sprintf("failed to encode request: %v", err))
	}
	tracing.AddAttribute(ctx, "llm.model", model)

	resp, err := s.http.Do(ctx, s.newRequest(body, false))
	if err != nil {
		s.logger.WithField("model", model).WithField("error", err.Error()).Error("Chat completion failed")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	if !gjson.ValidBytes(resp.Body) {
		err := apperror.New(apperror.KindDataCorrupted, openRouterService, fmt.Errorf("response is not valid JSON"))
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}
	parsed := gjson.ParseBytes(resp.Body)
	if msg := parsed.Get("error.message"); msg.Exists() {
		err := apperror.New(apperror.KindServerError, openRouterService, fmt.Errorf("%s", msg.String()))
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}
	content := parsed.Get("choices.0.message.content")
	if !content.Exists() {
		err := apperror.InvalidResponse(openRouterService, "response has no choices")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	out := &domain.LLMChatResponse{
		Content:      content.String(),
		Model:        parsed.Get("model").String(),
		FinishReason: parsed.Get("choices.0.finish_reason").String(),
		InputTokens:  parsed.Get("usage.prompt_tokens").Int(),
		OutputTokens: parsed.Get("usage.completion_tokens").Int(),
	}
	if out.Model == "" {
		out.Model = model
	}

	s.logger.WithFields(map[string]interface{}{
		"model":         out.Model,
		"input_tokens":  out.InputTokens,
		"output_tokens": out.OutputTokens,
	}).Debug("Chat completion finished")

	return out, nil
}

// StreamChat streams completion deltas. The stream ends at "data: [DONE]"
// or EOF, after which a single "done" event is sent.
func (s *LLMService) StreamChat(ctx context.Context, req *domain.LLMChatRequest, onEvent func(domain.LLMChatEvent) error) error {
	ctx, span := tracing.StartServiceSpan(ctx, "LLMService", "StreamChat")
	defer span.End()

	if err := req.Validate(); err != nil {
		tracing.MarkSpanError(ctx, err)
		return apperror.InvalidInput(openRouterService, err.Error())
	}

	body, model, err := s.payload(req, true)
	if err != nil {
		return apperror.InvalidInput(openRouterService, fmt.Sprintf("failed to encode request: %v", err))
	}
	tracing.AddAttribute(ctx, "llm.model", model)

	resp, err := s.stream.Stream(ctx, s.newRequest(body, true))
	if err != nil {
		s.logger.WithField("model", model).WithField("error", err.Error()).Error("Failed to open completion stream")
		tracing.MarkSpanError(ctx, err)
		return err
	}
	defer resp.Body.Close()

	chunks := 0
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Blank separators and ": keep-alive" comments.
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}
		if !gjson.Valid(data) {
			s.logger.WithField("line", data).Warn("Skipping malformed stream chunk")
			continue
		}

		chunk := gjson.Parse(data)
		if msg := chunk.Get("error.message"); msg.Exists() {
			err := apperror.New(apperror.KindServerError, openRouterService, fmt.Errorf("%s", msg.String()))
			tracing.MarkSpanError(ctx, err)
			return err
		}
		if m := chunk.Get("model").String(); m != "" {
			model = m
		}
		delta := chunk.Get("choices.0.delta.content").String()
		if delta == "" {
			continue
		}
		chunks++
		if err := onEvent(domain.LLMChatEvent{Type: "text", Content: delta}); err != nil {
			return fmt.Errorf("failed to send event: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		appErr := apperror.FromTransport(openRouterService, err)
		s.logger.WithField("error", err.Error()).Error("Completion stream interrupted")
		tracing.MarkSpanError(ctx, appErr)
		return appErr
	}

	s.logger.WithField("model", model).WithField("chunks", chunks).Debug("Completion stream finished")

	return onEvent(domain.LLMChatEvent{Type: "done", Model: model})
}
