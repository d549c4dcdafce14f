package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorestars/internal/ledger"
	"github.com/dukerupert/chorestars/internal/model"
	"github.com/dukerupert/chorestars/internal/roster"
	"github.com/dukerupert/chorestars/internal/websocket"
)

type LedgerHandler struct {
	ledger *ledger.Ledger
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewLedgerHandler(l *ledger.Ledger, hub *websocket.Hub, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: l, hub: hub, logger: logger}
}

type balanceResponse struct {
	Child   string `json:"child"`
	Balance int    `json:"balance"`
}

func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	child := roster.Normalize(r.PathValue("name"))
	balance, err := h.ledger.Balance(child)
	if err != nil {
		writeLedgerError(w, h.logger, "get balance", err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Child: child, Balance: balance})
}

func (h *LedgerHandler) Pending(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.ledger.PendingTasks(r.PathValue("name"))
	if err != nil {
		writeLedgerError(w, h.logger, "pending tasks", err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *LedgerHandler) CashOut(w http.ResponseWriter, r *http.Request) {
	child := roster.Normalize(r.PathValue("name"))
	settled, err := h.ledger.CashOut(child)
	if err != nil {
		writeLedgerError(w, h.logger, "cash out", err)
		return
	}
	if settled > 0 && h.hub != nil {
		h.hub.Broadcast(websocket.CashOut(child, settled))
	}
	writeJSON(w, http.StatusOK, map[string]int{"settled": settled})
}

func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.ledger.CashOutHistory(r.URL.Query().Get("child"))
	if err != nil {
		writeLedgerError(w, h.logger, "cash-out history", err)
		return
	}
	if history == nil {
		history = []model.CashOut{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *LedgerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.Statistics()
	if err != nil {
		writeLedgerError(w, h.logger, "statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
