package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"tank-monitor/analytics/internal/domain"
	"tank-monitor/analytics/internal/metrics"
	"tank-monitor/analytics/internal/monitor"
)

type StatusService interface {
	EvaluateTank(ctx context.Context, id, group string) (domain.FillStatus, error)
	EvaluateAll(ctx context.Context, group string) ([]domain.FillStatus, error)
	Digest(ctx context.Context, group string) (monitor.Digest, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc     StatusService
	checks  map[string]Pinger
	auth    *AuthMiddleware
	streams http.Handler
}

func NewHandler(svc StatusService, auth *AuthMiddleware, streams http.Handler, checks map[string]Pinger) *Handler {
	return &Handler{svc: svc, auth: auth, streams: streams, checks: checks}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /metrics", metrics.HandleMetrics)
	mux.Handle("GET /api/v1/tanks/status", h.auth.Wrap(http.HandlerFunc(h.listStatus)))
	mux.Handle("GET /api/v1/tanks/digest", h.auth.Wrap(http.HandlerFunc(h.digest)))
	mux.Handle("GET /api/v1/tanks/{id}/status", h.auth.Wrap(http.HandlerFunc(h.tankStatus)))
	if h.streams != nil {
		mux.Handle("GET /ws", h.auth.Wrap(h.streams))
	}
	return mux
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	code := http.StatusOK
	for name, p := range h.checks {
		if err := p.Ping(r.Context()); err != nil {
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	writeJSON(w, code, status)
}

func (h *Handler) listStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.svc.EvaluateAll(r.Context(), ScopeFrom(r.Context()))
	if err != nil {
		log.Printf("http: list status: %v", err)
		writeError(w, http.StatusBadGateway, "tank evaluation failed")
		return
	}
	if statuses == nil {
		statuses = []domain.FillStatus{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tanks": statuses})
}

func (h *Handler) tankStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	// Tanks outside the caller's scope come back as not found.
	st, err := h.svc.EvaluateTank(r.Context(), id, ScopeFrom(r.Context()))
	if monitor.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "tank not found")
		return
	}
	if err != nil {
		log.Printf("http: tank %s status: %v", id, err)
		writeError(w, http.StatusBadGateway, "tank evaluation failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) digest(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Digest(r.Context(), ScopeFrom(r.Context()))
	if err != nil {
		log.Printf("http: digest: %v", err)
		writeError(w, http.StatusBadGateway, "tank evaluation failed")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
