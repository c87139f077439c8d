package handler

import (
	"log/slog"
	"net/http"

	"github.com/mpetrov/gswapbot/internal/domain"
)

// TradeHandler serves the trade log. It is registered only when a trade
// log store is configured.
type TradeHandler struct {
	store  domain.TradeLogStore
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler.
func NewTradeHandler(store domain.TradeLogStore, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{store: store, logger: logger}
}

// ListTrades returns the most recent trade records, newest first.
// GET /api/trades?limit=50
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}

	records, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("trade list failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}
	if records == nil {
		records = []domain.TradeRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
