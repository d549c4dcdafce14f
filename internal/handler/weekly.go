package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorestars/internal/weekly"
)

type WeeklyHandler struct {
	cycle  *weekly.Cycle
	logger *slog.Logger
}

func NewWeeklyHandler(cycle *weekly.Cycle, logger *slog.Logger) *WeeklyHandler {
	return &WeeklyHandler{cycle: cycle, logger: logger}
}

type weeklyStatus struct {
	LastRefresh *time.Time `json:"last_refresh"`
	Due         bool       `json:"due"`
}

func (h *WeeklyHandler) Status(w http.ResponseWriter, r *http.Request) {
	last, ok, err := h.cycle.LastRefresh()
	if err != nil {
		h.logger.Error("get last refresh", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	due, err := h.cycle.IsDue(time.Now().UTC())
	if err != nil {
		h.logger.Error("check refresh due", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := weeklyStatus{Due: due}
	if ok {
		status.LastRefresh = &last
	}
	writeJSON(w, http.StatusOK, status)
}

// Refresh forces a refresh regardless of whether one is due.
func (h *WeeklyHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.cycle.Refresh()
	if err != nil {
		h.logger.Error("manual weekly refresh", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to refresh weekly tasks")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
