package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/chorestars/internal/model"
	"github.com/dukerupert/chorestars/internal/store"
)

type PrizeHandler struct {
	prizes *store.PrizeStore
	logger *slog.Logger
}

func NewPrizeHandler(prizes *store.PrizeStore, logger *slog.Logger) *PrizeHandler {
	return &PrizeHandler{prizes: prizes, logger: logger}
}

type prizeRequest struct {
	Title string `json:"title"`
	Cost  int    `json:"cost"`
}

func (h *PrizeHandler) List(w http.ResponseWriter, r *http.Request) {
	prizes, err := h.prizes.List()
	if err != nil {
		h.logger.Error("list prizes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list prizes")
		return
	}
	if prizes == nil {
		prizes = []model.Prize{}
	}
	writeJSON(w, http.StatusOK, prizes)
}

func (h *PrizeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req prizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Cost <= 0 {
		writeError(w, http.StatusBadRequest, "cost must be positive")
		return
	}

	prize, err := h.prizes.Create(req.Title, req.Cost)
	if err != nil {
		h.logger.Error("create prize", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create prize")
		return
	}
	writeJSON(w, http.StatusCreated, prize)
}

func (h *PrizeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.prizes.GetByID(id)
	if err != nil {
		h.logger.Error("get prize", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get prize")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "prize not found")
		return
	}

	if err := h.prizes.Delete(id); err != nil {
		h.logger.Error("delete prize", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete prize")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
