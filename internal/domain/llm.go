package domain

import (
	"context"
	"fmt"
)

// LLMMessage represents a chat message
type LLMMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// LLMChatRequest is an OpenAI-style chat completion request.
type LLMChatRequest struct {
	Model        string       `json:"model,omitempty"`
	SystemPrompt string       `json:"-"`
	Messages     []LLMMessage `json:"messages"`
	Temperature  *float64     `json:"temperature,omitempty"`
	MaxTokens    int          `json:"max_tokens,omitempty"`
}

// LLMChatResponse is the non-streaming result.
type LLMChatResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
	InputTokens  int64  `json:"input_tokens,omitempty"`
	OutputTokens int64  `json:"output_tokens,omitempty"`
}

// LLMChatEvent represents a streaming event
type LLMChatEvent struct {
	Type    string `json:"type"`              // "text", "done", "error"
	Content string `json:"content,omitempty"` // Text delta for "text" events
	Error   string `json:"error,omitempty"`
	Model   string `json:"model,omitempty"` // done event only
}

// Validate validates the LLM chat request
func (r *LLMChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("at least one message is required")
	}
	for i, msg := range r.Messages {
		if msg.Role != "user" && msg.Role != "assistant" && msg.Role != "system" {
			return fmt.Errorf("message %d: role must be 'system', 'user' or 'assistant'", i)
		}
		if msg.Content == "" {
			return fmt.Errorf("message %d: content is required", i)
		}
	}
	if r.MaxTokens < 0 || r.MaxTokens > 16384 {
		return fmt.Errorf("max_tokens must be between 0 and 16384")
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	return nil
}

// WireMessages prepends the system prompt, if any, as a system message.
func (r *LLMChatRequest) WireMessages() []LLMMessage {
	if r.SystemPrompt == "" {
		return r.Messages
	}
	out := make([]LLMMessage, 0, len(r.Messages)+1)
	out = append(out, LLMMessage{Role: "system", Content: r.SystemPrompt})
	return append(out, r.Messages...)
}

// HistoryToLLM converts conversation history, dropping system entries.
func HistoryToLLM(history []ConversationMessage) []LLMMessage {
	out := make([]LLMMessage, 0, len(history))
	for _, m := range history {
		if m.Role == RoleSystem || m.Content == "" {
			continue
		}
		out = append(out, LLMMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func Float64Ptr(v float64) *float64 {
	return &v
}

//go:generate mockgen -destination mocks/mock_llm_service.go -package mocks github.com/Ironclad/ironclad/internal/domain LLMService

// LLMService talks to the chat completion backend.
type LLMService interface {
	Chat(ctx context.Context, req *LLMChatRequest) (*LLMChatResponse, error)
	// StreamChat calls onEvent for every text delta and once with "done".
	// An error returned by onEvent stops the stream and is returned.
	StreamChat(ctx context.Context, req *LLMChatRequest, onEvent func(LLMChatEvent) error) error
}
