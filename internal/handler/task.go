package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/chorestars/internal/auth"
	"github.com/dukerupert/chorestars/internal/ledger"
	"github.com/dukerupert/chorestars/internal/model"
	"github.com/dukerupert/chorestars/internal/websocket"
)

type TaskHandler struct {
	ledger *ledger.Ledger
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(l *ledger.Ledger, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{ledger: l, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(ev websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(ev)
	}
}

type taskRequest struct {
	Child     string `json:"child"`
	Text      string `json:"text"`
	Reward    int    `json:"reward"`
	Recurring bool   `json:"recurring"`
}

// List returns open tasks, or completed ones with ?completed=true. A child
// sees its own tasks unless ?child= asks for another.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	completed := false
	if v := r.URL.Query().Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid completed flag")
			return
		}
		completed = b
	}

	child := strings.TrimSpace(r.URL.Query().Get("child"))
	if child == "" {
		child = auth.ChildName(r.Context())
	}

	tasks, err := h.ledger.ListTasks(child, completed)
	if err != nil {
		writeLedgerError(w, h.logger, "list tasks", err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	task, err := h.ledger.CreateTask(req.Child, req.Text, req.Reward, req.Recurring)
	if err != nil {
		writeLedgerError(w, h.logger, "create task", err)
		return
	}

	h.broadcast(websocket.TaskCreated(task.ChildName, task.ID, task.Reward))
	writeJSON(w, http.StatusCreated, task)
}

// Complete credits the task to the acting child. A task that does not apply
// still answers 200 with credited 0.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	child := auth.ChildName(r.Context())

	credited, err := h.ledger.CompleteTask(id, child)
	if err != nil {
		writeLedgerError(w, h.logger, "complete task", err)
		return
	}

	resp := map[string]int{"credited": credited}
	if credited > 0 {
		balance, err := h.ledger.Balance(child)
		if err != nil {
			writeLedgerError(w, h.logger, "get balance", err)
			return
		}
		resp["balance"] = balance
		h.broadcast(websocket.TaskCompleted(child, id, credited, balance))
	}
	writeJSON(w, http.StatusOK, resp)
}
