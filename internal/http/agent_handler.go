package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/internal/http/middleware"
	"github.com/Ironclad/ironclad/pkg/logger"
)

// AgentHandler exposes the orchestrator. Session ids are scoped to the
// authenticated user, so one user cannot read another's history.
type AgentHandler struct {
	orchestrator domain.AgentOrchestrator
	logger       logger.Logger
}

func NewAgentHandler(orchestrator domain.AgentOrchestrator, logger logger.Logger) *AgentHandler {
	return &AgentHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// RegisterRoutes mounts the agent endpoints. limit wraps the endpoints that
// run a turn.
func (h *AgentHandler) RegisterRoutes(mux *http.ServeMux, requireAuth, limit func(http.Handler) http.Handler) {
	mux.Handle("/api/agent.process", requireAuth(limit(http.HandlerFunc(h.handleProcess))))
	mux.Handle("/api/agent.stream", requireAuth(limit(http.HandlerFunc(h.handleStream))))
	mux.Handle("/api/agent.history", requireAuth(http.HandlerFunc(h.handleHistory)))
	mux.Handle("/api/agent.clear", requireAuth(http.HandlerFunc(h.handleClear)))
	mux.Handle("/api/agent.stats", requireAuth(http.HandlerFunc(h.handleStats)))
}

type ClearRequest struct {
	SessionID string `json:"session_id"`
}

type HistoryResponse struct {
	SessionID string                       `json:"session_id"`
	Messages  []domain.ConversationMessage `json:"messages"`
}

// scopedSession namespaces a client session id by user.
func scopedSession(r *http.Request, sessionID string) string {
	userID := middleware.DevUserID
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		userID = user.ID
	}
	return userID + ":" + sessionID
}

// readProcessRequest decodes and validates a turn request, assigning a
// session id when the client has none yet.
func readProcessRequest(w http.ResponseWriter, r *http.Request) (*domain.ProcessRequest, error) {
	var req domain.ProcessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	return &req, nil
}

func (h *AgentHandler) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := readProcessRequest(w, r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	output, err := h.orchestrator.Process(r.Context(), scopedSession(r, req.SessionID), req.Message, req.Context)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.ProcessResponse{
		SessionID: req.SessionID,
		Output:    output,
	})
}

func (h *AgentHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := readProcessRequest(w, r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("Streaming not supported")
		WriteJSONError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(event domain.AgentStreamEvent) error {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
		flusher.Flush()
		return nil
	}

	if err := send(domain.AgentStreamEvent{Type: "start", SessionID: req.SessionID}); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Client went away before the stream started")
		return
	}

	output, err := h.orchestrator.ProcessStream(r.Context(), scopedSession(r, req.SessionID), req.Message, req.Context,
		func(agent domain.AgentKind, chunk string) error {
			return send(domain.AgentStreamEvent{Type: "chunk", SessionID: req.SessionID, Agent: agent, Content: chunk})
		})
	if err != nil {
		_, body, _ := classifyError(err)
		h.logger.WithFields(map[string]interface{}{
			"session_id": req.SessionID,
			"kind":       body.Kind,
			"error":      err.Error(),
		}).Error("Agent stream failed")

		// The client may already be gone; the error event is best effort.
		_ = send(domain.AgentStreamEvent{Type: "error", SessionID: req.SessionID, Error: body.Error})
		return
	}

	_ = send(domain.AgentStreamEvent{Type: "done", SessionID: req.SessionID, Agent: output.Agent, Output: output})
}

func (h *AgentHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		WriteJSONError(w, "session_id is required", http.StatusBadRequest)
		return
	}

	messages, err := h.orchestrator.History(r.Context(), scopedSession(r, sessionID))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{SessionID: sessionID, Messages: messages})
}

func (h *AgentHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ClearRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		WriteJSONError(w, "session_id is required", http.StatusBadRequest)
		return
	}

	if err := h.orchestrator.ClearHistory(r.Context(), scopedSession(r, req.SessionID)); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *AgentHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.orchestrator.Stats())
}
