package domain

import (
	"context"
	"io"
)

//go:generate mockgen -destination mocks/mock_embedding_service.go -package mocks github.com/Ironclad/ironclad/internal/domain EmbeddingService
//go:generate mockgen -destination mocks/mock_transcription_service.go -package mocks github.com/Ironclad/ironclad/internal/domain TranscriptionService
//go:generate mockgen -destination mocks/mock_vector_search_service.go -package mocks github.com/Ironclad/ironclad/internal/domain VectorSearchService
//go:generate mockgen -destination mocks/mock_knowledge_service.go -package mocks github.com/Ironclad/ironclad/internal/domain KnowledgeService
//go:generate mockgen -destination mocks/mock_web_search_service.go -package mocks github.com/Ironclad/ironclad/internal/domain WebSearchService

// VectorQuery searches one table by embedding.
type VectorQuery struct {
	Table  string    `json:"table"`
	Vector []float32 `json:"vector"`
	Limit  int       `json:"limit"`
	Filter string    `json:"filter,omitempty"`
}

type VectorResult struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Source is the metadata "source" value, falling back to the result ID.
func (r *VectorResult) Source() string {
	if r.Metadata != nil {
		if s, ok := r.Metadata["source"].(string); ok && s != "" {
			return s
		}
		if s, ok := r.Metadata["title"].(string); ok && s != "" {
			return s
		}
	}
	return r.ID
}

// KnowledgeContext is retrieved context ready to drop into a prompt.
type KnowledgeContext struct {
	Query   string         `json:"query"`
	Results []VectorResult `json:"results"`
	Text    string         `json:"text"`
}

type WebSearchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth,omitempty"` // "basic" or "advanced"
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results,omitempty"`
}

type WebSearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type WebSearchResponse struct {
	Query   string            `json:"query"`
	Answer  string            `json:"answer,omitempty"`
	Results []WebSearchResult `json:"results"`
}

type Transcription struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

type EmbeddingService interface {
	Embed(ctx context.Context, input string) ([]float32, error)
}

type TranscriptionService interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (*Transcription, error)
}

type VectorSearchService interface {
	Search(ctx context.Context, query VectorQuery) ([]VectorResult, error)
}

// KnowledgeService answers "what do we know about X" from the vector store.
type KnowledgeService interface {
	Retrieve(ctx context.Context, table, query string, topK int) (*KnowledgeContext, error)
}

type WebSearchService interface {
	Search(ctx context.Context, req WebSearchRequest) (*WebSearchResponse, error)
}
