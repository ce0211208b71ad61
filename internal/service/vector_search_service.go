package service

import (
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

const lanceDBService = "lancedb"

type VectorSearchServiceConfig struct {
	URL            string
	APIKey         string
	RequestTimeout time.Duration
	Retry          httpclient.Policy
	Transport      http.RoundTripper
	Logger         logger.Logger
}

// VectorSearchService queries the LanceDB search gateway.
type VectorSearchService struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	logger  logger.Logger
}

var _ domain.VectorSearchService = (*VectorSearchService)(nil)

func NewVectorSearchService(cfg VectorSearchServiceConfig) *VectorSearchService {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VectorSearchService{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		http: httpclient.New(lanceDBService, cfg.Retry, cfg.Logger,
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout, Transport: cfg.Transport}),
		),
		logger: cfg.Logger,
	}
}

func (s *VectorSearchService) Search(ctx context.Context, query domain.VectorQuery) ([]domain.VectorResult, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "VectorSearchService", "Search")
	defer span.End()
	tracing.AddAttribute(ctx, "lancedb.table", query.Table)

	if query.Table == "" {
		return nil, apperror.InvalidInput(lanceDBService, "table is required")
	}
	if len(query.Vector) == 0 {
		return nil, apperror.InvalidInput(lanceDBService, "vector is required")
	}
	if query.Limit <= 0 {
		query.Limit = 5
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, apperror.InvalidInput(lanceDBService, err.Error())
	}

	resp, err := s.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if s.apiKey != "" {
			req.Header.Set("x-api-key", s.apiKey)
		}
		return req, nil
	})
	if err != nil {
		s.logger.WithField("table", query.Table).WithField("error", err.Error()).Error("Vector search failed")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	results := gjson.GetBytes(resp.Body, "results")
	if !results.IsArray() {
		err := apperror.InvalidResponse(lanceDBService, "response has no results array")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	out := make([]domain.VectorResult, 0, len(results.Array()))
	for _, r := range results.Array() {
		item := domain.VectorResult{
			ID:    r.Get("id").String(),
			Text:  r.Get("text").String(),
			Score: r.Get("score").Float(),
		}
		if md := r.Get("metadata"); md.IsObject() {
			if err := json.Unmarshal([]byte(md.Raw), &item.Metadata); err != nil {
				return nil, apperror.Decode(lanceDBService, err)
			}
		}
		out = append(out, item)
	}
	tracing.AddAttribute(ctx, "lancedb.results", len(out))
	return out, nil
}

// KnowledgeService embeds a question and pulls the closest passages.
type KnowledgeService struct {
	embedder     domain.EmbeddingService
	search       domain.VectorSearchService
	defaultTable string
	defaultTopK  int
	logger       logger.Logger
}

var _ domain.KnowledgeService = (*KnowledgeService)(nil)

func NewKnowledgeService(embedder domain.EmbeddingService, search domain.VectorSearchService, defaultTable string, defaultTopK int, logger logger.Logger) *KnowledgeService {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &KnowledgeService{
		embedder:     embedder,
		search:       search,
		defaultTable: defaultTable,
		defaultTopK:  defaultTopK,
		logger:       logger,
	}
}

// Retrieve returns the top passages for query. Text joins them, each
// prefixed with a [source: ...] tag, and is empty when nothing matched.
func (s *KnowledgeService) Retrieve(ctx context.Context, table, query string, topK int) (*domain.KnowledgeContext, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "KnowledgeService", "Retrieve")
	defer span.End()

	if table == "" {
		table = s.defaultTable
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.search.Search(ctx, domain.VectorQuery{
		Table:  table,
		Vector: vector,
		Limit:  topK,
	})
	if err != nil {
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to search %s: %w", table, err)
	}
	if len(results) > topK {
		results = results[:topK]
	}

	s.logger.WithFields(map[string]interface{}{
		"table":   table,
		"results": len(results),
	}).Debug("Knowledge retrieved")

	return &domain.KnowledgeContext{
		Query:   query,
		Results: results,
		Text:    BuildKnowledgeText(results),
	}, nil
}

func BuildKnowledgeText(results []domain.VectorResult) string {
	var b strings.Builder
	for i := range results {
		text := strings.TrimSpace(results[i].Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[source: %s]\n%s", results[i].Source(), text)
	}
	return b.String()
}
