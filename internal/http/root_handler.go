package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Ironclad/ironclad/pkg/logger"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

const healthCheckTimeout = 3 * time.Second

type RootHandler struct {
	logger  logger.Logger
	version string
	checks  map[string]HealthCheck
}

// NewRootHandler creates the handler for /healthz and the /api index.
// checks may be nil.
func NewRootHandler(logger logger.Logger, version string, checks map[string]HealthCheck) *RootHandler {
	return &RootHandler{
		logger:  logger,
		version: version,
		checks:  checks,
	}
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (h *RootHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/healthz":
		h.serveHealth(w, r)
	case "/api", "/api/":
		writeJSON(w, http.StatusOK, map[string]string{"status": "api running", "version": h.version})
	default:
		WriteJSONError(w, "Not found", http.StatusNotFound)
	}
}

func (h *RootHandler) serveHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{Status: "ok", Version: h.version}
	if len(h.checks) == 0 {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp.Checks = make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.WithField("check", name).WithField("error", err.Error()).Warn("Health check failed")
			resp.Checks[name] = "error"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (h *RootHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Handle)
	mux.HandleFunc("/", h.Handle)
}
