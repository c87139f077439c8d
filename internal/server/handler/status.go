package handler

import (
	"log/slog"
	"net/http"

	"github.com/mpetrov/gswapbot/internal/domain"
	"github.com/mpetrov/gswapbot/internal/market"
)

// StatusSource is the slice of the orchestrator the API reads from.
type StatusSource interface {
	Status() domain.BotStatus
	Positions() domain.Ledger
	History() []market.PricePoint
}

// StatusHandler serves bot state snapshots.
type StatusHandler struct {
	source StatusSource
	logger *slog.Logger
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(source StatusSource, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{source: source, logger: logger}
}

// GetStatus returns the bot's current status snapshot.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.source.Status())
}

// ListPositions returns the tracked ledger positions.
// GET /api/positions
func (h *StatusHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.source.Positions())
}

// GetHistory returns the recorded price points, newest last. The optional
// ?limit= parameter truncates to the most recent N points.
// GET /api/history
func (h *StatusHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	points := h.source.History()
	limit := queryInt(r, "limit", len(points))
	if limit < len(points) {
		points = points[len(points)-limit:]
	}
	writeJSON(w, http.StatusOK, points)
}
