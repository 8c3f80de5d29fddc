// Package api exposes the question engine over HTTP. Each round is a single
// stateless POST: the client threads the requirement record and conversation
// history through every request, so the server holds no session state and
// scales behind any load balancer.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/c360studio/intake/engine"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRoundBodySize limits the size of round request bodies to prevent DoS.
const maxRoundBodySize = 1 << 20 // 1 MB

// roundRunner is the subset of the engine used by the HTTP handler.
// Extracted as an interface to enable testing with canned results.
type roundRunner interface {
	RunRound(ctx context.Context, input engine.RoundInput) (engine.RoundResult, error)
}

// Handler provides the HTTP endpoints for question rounds.
type Handler struct {
	engine roundRunner
	logger *slog.Logger
}

// NewHandler creates an HTTP handler backed by the given engine.
func NewHandler(eng roundRunner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: eng, logger: logger}
}

// RegisterHandlers registers the round API endpoints on the mux.
func (h *Handler) RegisterHandlers(mux *http.ServeMux) {
	// POST /api/sessions/{id}/rounds - Run one question round
	mux.HandleFunc("POST /api/sessions/{id}/rounds", h.handleRound)

	// GET /healthz - Liveness probe
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// GET /metrics - Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())
}

// handleRound handles POST /api/sessions/{id}/rounds.
func (h *Handler) handleRound(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		h.writeError(w, http.StatusBadRequest, "session ID required")
		return
	}

	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(w, r.Body, maxRoundBodySize)

	var req RoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserInput == "" {
		h.writeError(w, http.StatusBadRequest, "userInput is required")
		return
	}

	input := buildRoundInput(sessionID, req)

	result, err := h.engine.RunRound(r.Context(), input)
	if err != nil {
		// Engine errors mean corrupted input state, not a model outage.
		// Model outages are handled inside the engine and never reach here.
		h.logger.Error("Round failed", "session_id", sessionID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, RoundResponse{
		Success: true,
		Data:    buildRoundData(input, result),
	})
}

// handleHealthz handles GET /healthz.
func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("Failed to write JSON response", "error", err)
	}
}

// writeError writes the failure envelope.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(RoundResponse{Success: false, Error: message})
}
