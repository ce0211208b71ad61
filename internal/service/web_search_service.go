package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/apperror"
	"github.com/Ironclad/ironclad/pkg/httpclient"
	"github.com/Ironclad/ironclad/pkg/logger"
	"github.com/Ironclad/ironclad/pkg/tracing"
)

const tavilyService = "tavily"

type WebSearchServiceConfig struct {
	APIKey         string
	BaseURL        string
	SearchDepth    string
	MaxResults     int
	RequestTimeout time.Duration
	Retry          httpclient.Policy
	Transport      http.RoundTripper
	Logger         logger.Logger
}

// WebSearchService handles interactions with the Tavily search API
type WebSearchService struct {
	apiKey      string
	baseURL     string
	searchDepth string
	maxResults  int
	http        *httpclient.Client
	logger      logger.Logger
}

var _ domain.WebSearchService = (*WebSearchService)(nil)

func NewWebSearchService(cfg WebSearchServiceConfig) *WebSearchService {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	depth := cfg.SearchDepth
	if depth == "" {
		depth = "basic"
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebSearchService{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		searchDepth: depth,
		maxResults:  maxResults,
		http: httpclient.New(tavilyService, cfg.Retry, cfg.Logger,
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout, Transport: cfg.Transport}),
		),
		logger: cfg.Logger,
	}
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

// Search runs a web search. Result content is reduced to plain text.
func (s *WebSearchService) Search(ctx context.Context, req domain.WebSearchRequest) (*domain.WebSearchResponse, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "WebSearchService", "Search")
	defer span.End()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, apperror.InvalidInput(tavilyService, "query is required")
	}
	depth := req.SearchDepth
	if depth == "" {
		depth = s.searchDepth
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:        s.apiKey,
		Query:         query,
		SearchDepth:   depth,
		IncludeAnswer: req.IncludeAnswer,
		MaxResults:    maxResults,
	})
	if err != nil {
		return nil, apperror.InvalidInput(tavilyService, err.Error())
	}

	resp, err := s.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	})
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Web search failed")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	parsed := gjson.ParseBytes(resp.Body)
	results := parsed.Get("results")
	if !results.IsArray() {
		err := apperror.InvalidResponse(tavilyService, "response has no results array")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	out := &domain.WebSearchResponse{
		Query:   query,
		Answer:  strings.TrimSpace(parsed.Get("answer").String()),
		Results: make([]domain.WebSearchResult, 0, len(results.Array())),
	}
	for _, r := range results.Array() {
		out.Results = append(out.Results, domain.WebSearchResult{
			Title:   HTMLToText(r.Get("title").String()),
			URL:     r.Get("url").String(),
			Content: HTMLToText(r.Get("content").String()),
			Score:   r.Get("score").Float(),
		})
	}

	s.logger.WithField("results", len(out.Results)).Debug("Web search completed")
	return out, nil
}

// HTMLToText strips markup and collapses whitespace. Input without tags is
// only whitespace-normalised.
func HTMLToText(s string) string {
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			doc.Find("script, style, noscript").Remove()
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
