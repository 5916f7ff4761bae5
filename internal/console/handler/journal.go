package handler

import (
	"net/http"
	"strconv"

	"github.com/xela07ax/blaxing-console/internal/journal"
	"go.uber.org/zap"
)

const maxJournalLimit = 500

type JournalHandler struct {
	reader journal.Reader
	logger *zap.Logger
}

func NewJournalHandler(r journal.Reader, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{reader: r, logger: logger.Named("journal")}
}

// Recent GET /api/journal?limit=N, история действий всех сессий.
func (h *JournalHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeDetail(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	entries, err := h.reader.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("journal read failed", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "journal unavailable")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
