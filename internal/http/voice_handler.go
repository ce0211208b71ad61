package http

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/logger"
)

// maxAudioBytes matches the transcription API upload limit.
const maxAudioBytes = 25 << 20

var audioExtensions = map[string]bool{
	".m4a": true, ".mp3": true, ".mp4": true, ".mpeg": true, ".mpga": true,
	".wav": true, ".webm": true, ".ogg": true, ".flac": true, ".caf": true,
}

type VoiceResponse struct {
	Text      string              `json:"text"`
	Language  string              `json:"language,omitempty"`
	Duration  float64             `json:"duration,omitempty"`
	SessionID string              `json:"session_id,omitempty"`
	Output    *domain.AgentOutput `json:"output,omitempty"`
}

// VoiceHandler turns a recorded question into text and, when asked, runs it
// through the orchestrator as a normal turn.
type VoiceHandler struct {
	transcriber  domain.TranscriptionService
	orchestrator domain.AgentOrchestrator
	logger       logger.Logger
}

// NewVoiceHandler accepts a nil transcriber when no speech provider is
// configured; the endpoint then answers 503.
func NewVoiceHandler(transcriber domain.TranscriptionService, orchestrator domain.AgentOrchestrator, logger logger.Logger) *VoiceHandler {
	return &VoiceHandler{
		transcriber:  transcriber,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

func (h *VoiceHandler) RegisterRoutes(mux *http.ServeMux, requireAuth, limit func(http.Handler) http.Handler) {
	mux.Handle("/api/voice.transcribe", requireAuth(limit(http.HandlerFunc(h.handleTranscribe))))
}

func (h *VoiceHandler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.transcriber == nil {
		WriteJSONError(w, "Voice transcription is not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes+1<<20)
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteJSONError(w, "Audio file is too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, h.logger, r, domain.NewValidationError("expected a multipart form with a file field"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.logger, r, domain.NewValidationError("file is required"))
		return
	}
	defer file.Close()

	if header.Size == 0 {
		writeError(w, h.logger, r, domain.NewValidationError("audio file is empty"))
		return
	}
	if !audioExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		writeError(w, h.logger, r, domain.NewValidationError("unsupported audio format: "+header.Filename))
		return
	}

	transcription, err := h.transcriber.Transcribe(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	resp := VoiceResponse{
		Text:     strings.TrimSpace(transcription.Text),
		Language: transcription.Language,
		Duration: transcription.Duration,
	}

	process, _ := strconv.ParseBool(r.FormValue("process"))
	if !process || resp.Text == "" {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	req := domain.ProcessRequest{
		SessionID: strings.TrimSpace(r.FormValue("session_id")),
		Message:   resp.Text,
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	output, err := h.orchestrator.Process(r.Context(), scopedSession(r, req.SessionID), req.Message, nil)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	resp.SessionID = req.SessionID
	resp.Output = output
	writeJSON(w, http.StatusOK, resp)
}
