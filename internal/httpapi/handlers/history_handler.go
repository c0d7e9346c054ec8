package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/soufiangit/supplementer.ai/internal/history"
	"go.uber.org/zap"
)

const maxHistoryLimit = 500

// HistoryLister reads recently served requests.
type HistoryLister interface {
	ListRecent(ctx context.Context, limit int) ([]history.Entry, error)
}

// HistoryHandler exposes request history. A nil lister means history is off.
type HistoryHandler struct {
	lister HistoryLister
	logger *zap.Logger
}

// NewHistoryHandler constructs a handler.
func NewHistoryHandler(lister HistoryLister, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{lister: lister, logger: logger}
}

// List returns the most recent requests, newest first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		writeError(w, http.StatusNotFound, "history_disabled", "request history is not enabled", nil)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be between 1 and 500", nil)
			return
		}
		limit = n
	}

	entries, err := h.lister.ListRecent(r.Context(), limit)
	if err != nil {
		reqID := middleware.GetReqID(r.Context())
		h.logger.Error("failed to list history", zap.String("request_id", reqID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", "failed to load history", map[string]any{"request_id": reqID})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}
