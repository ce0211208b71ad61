package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/apperror"
	"github.com/Ironclad/ironclad/pkg/httpclient"
	"github.com/Ironclad/ironclad/pkg/logger"
	"github.com/Ironclad/ironclad/pkg/tracing"
)

const openAIService = "openai"

// MaxAudioSize is the transcription endpoint's upload limit.
const MaxAudioSize = 25 * 1024 * 1024

type OpenAIServiceConfig struct {
	APIKey             string
	BaseURL            string
	EmbeddingModel     string
	TranscriptionModel string
	RequestTimeout     time.Duration
	Retry              httpclient.Policy
	Transport          http.RoundTripper
	Logger             logger.Logger
}

// OpenAIService covers embeddings and audio transcription.
type OpenAIService struct {
	baseURL            string
	apiKey             string
	embeddingModel     string
	transcriptionModel string
	http               *httpclient.Client
	logger             logger.Logger
}

var (
	_ domain.EmbeddingService     = (*OpenAIService)(nil)
	_ domain.TranscriptionService = (*OpenAIService)(nil)
)

func NewOpenAIService(cfg OpenAIServiceConfig) *OpenAIService {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}
	transcriptionModel := cfg.TranscriptionModel
	if transcriptionModel == "" {
		transcriptionModel = "whisper-1"
	}
	return &OpenAIService{
		baseURL:            baseURL,
		apiKey:             cfg.APIKey,
		embeddingModel:     embeddingModel,
		transcriptionModel: transcriptionModel,
		http: httpclient.New(openAIService, cfg.Retry, cfg.Logger,
			httpclient.WithHTTPClient(&http.Client{Timeout: timeout, Transport: cfg.Transport}),
		),
		logger: cfg.Logger,
	}
}

// Embed returns the embedding of input.
func (s *OpenAIService) Embed(ctx context.Context, input string) ([]float32, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "OpenAIService", "Embed")
	defer span.End()

	if strings.TrimSpace(input) == "" {
		return nil, apperror.InvalidInput(openAIService, "embedding input is empty")
	}

	body, err := json.Marshal(map[string]string{
		"model": s.embeddingModel,
		"input": input,
	})
	if err != nil {
		return nil, apperror.InvalidInput(openAIService, err.Error())
	}

	resp, err := s.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embeddings", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		return req, nil
	})
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Embedding request failed")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	embedding := gjson.GetBytes(resp.Body, "data.0.embedding")
	if !embedding.IsArray() {
		err := apperror.InvalidResponse(openAIService, "response has no embedding")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	values := embedding.Array()
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v.Float())
	}
	tracing.AddAttribute(ctx, "embedding.dimensions", len(out))
	return out, nil
}

// Transcribe uploads audio and returns the recognised text.
func (s *OpenAIService) Transcribe(ctx context.Context, filename string, audio io.Reader) (*domain.Transcription, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "OpenAIService", "Transcribe")
	defer span.End()

	// Buffered so every retry can rebuild the multipart body.
	data, err := io.ReadAll(io.LimitReader(audio, MaxAudioSize+1))
	if err != nil {
		return nil, apperror.InvalidInput(openAIService, fmt.Sprintf("failed to read audio: %v", err))
	}
	if len(data) == 0 {
		return nil, apperror.InvalidInput(openAIService, "audio is empty")
	}
	if len(data) > MaxAudioSize {
		return nil, apperror.InvalidInput(openAIService, "audio exceeds 25MB")
	}
	if filename == "" {
		filename = "audio.m4a"
	}
	tracing.AddAttribute(ctx, "audio.bytes", len(data))

	resp, err := s.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		if err := mw.WriteField("model", s.transcriptionModel); err != nil {
			return nil, err
		}
		if err := mw.WriteField("response_format", "json"); err != nil {
			return nil, err
		}
		part, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/audio/transcriptions", &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		return req, nil
	})
	if err != nil {
		s.logger.WithField("filename", filename).WithField("error", err.Error()).Error("Transcription request failed")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}

	text := gjson.GetBytes(resp.Body, "text")
	if !text.Exists() {
		err := apperror.InvalidResponse(openAIService, "response has no text")
		tracing.MarkSpanError(ctx, err)
		return nil, err
	}
	return &domain.Transcription{
		Text:     strings.TrimSpace(text.String()),
		Language: gjson.GetBytes(resp.Body, "language").String(),
		Duration: gjson.GetBytes(resp.Body, "duration").Float(),
	}, nil
}
