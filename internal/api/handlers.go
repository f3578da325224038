// Package api is the thin HTTP control surface over the workflow service:
// queue listing, history, stats and the approve/reject triggers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/moviecp/internal/core/workflow"
	"github.com/dmitrijs2005/moviecp/internal/logging"
	"github.com/dmitrijs2005/moviecp/internal/models"
)

const defaultHistoryLimit = 50

// Workflow is the surface of the orchestrator the handlers need.
type Workflow interface {
	Approve(ctx context.Context, id string, deleteSource bool) (*workflow.Result, error)
	Reject(ctx context.Context, id string, deleteSource bool) (*workflow.Result, error)
	ListPending(ctx context.Context) ([]*models.PendingFile, error)
	History(ctx context.Context, limit int) ([]*models.ProcessedFile, error)
	GetStats(ctx context.Context) (*workflow.Stats, error)
}

type Handler struct {
	workflow Workflow
	logger   logging.Logger
}

func NewHandler(wf Workflow, logger logging.Logger) *Handler {
	return &Handler{workflow: wf, logger: logger.With("module", "api")}
}

// Routes builds the chi router with the given extra middlewares applied first.
func (h *Handler) Routes(middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/files/pending", h.listPending)
		r.Get("/files/history", h.history)
		r.Post("/files/{id}/approve", h.approve)
		r.Post("/files/{id}/reject", h.reject)
		r.Get("/stats", h.stats)
		r.Get("/health", h.health)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// dispositionRequest is the JSON body of approve/reject calls. The body is
// optional; an absent body means delete_source=false.
type dispositionRequest struct {
	DeleteSource bool `json:"delete_source"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.dispose(w, r, h.workflow.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.dispose(w, r, h.workflow.Reject)
}

func (h *Handler) dispose(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, id string, deleteSource bool) (*workflow.Result, error)) {

	id := chi.URLParam(r, "id")

	var req dispositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := op(r.Context(), id, req.DeleteSource)
	switch {
	case workflow.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, "file not found")
		return
	case workflow.IsConflict(err):
		h.writeError(w, http.StatusConflict, "file is not pending")
		return
	case err != nil:
		h.logger.Error(r.Context(), "disposition failed", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	files, err := h.workflow.ListPending(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "listing pending files", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if files == nil {
		files = []*models.PendingFile{}
	}
	h.writeJSON(w, http.StatusOK, files)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	files, err := h.workflow.History(r.Context(), limit)
	if err != nil {
		h.logger.Error(r.Context(), "listing history", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if files == nil {
		files = []*models.ProcessedFile{}
	}
	h.writeJSON(w, http.StatusOK, files)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.workflow.GetStats(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "reading stats", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error(context.Background(), "encoding response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
