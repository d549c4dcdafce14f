package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event types pushed to dashboards.
const (
	EventTaskCreated     = "task_created"
	EventTaskCompleted   = "task_completed"
	EventCashOut         = "cash_out"
	EventWeeklyRefreshed = "weekly_refreshed"
)

// Event is a ledger change broadcast to connected clients. Child is empty
// for household-wide events.
type Event struct {
	Type    string `json:"type"`
	Child   string `json:"child,omitempty"`
	TaskID  int64  `json:"task_id,omitempty"`
	Amount  int    `json:"amount,omitempty"`
	Balance *int   `json:"balance,omitempty"`
	Created int    `json:"created,omitempty"`
}

func TaskCreated(child string, taskID int64, reward int) Event {
	return Event{Type: EventTaskCreated, Child: child, TaskID: taskID, Amount: reward}
}

func TaskCompleted(child string, taskID int64, credited, balance int) Event {
	return Event{Type: EventTaskCompleted, Child: child, TaskID: taskID, Amount: credited, Balance: &balance}
}

func CashOut(child string, settled int) Event {
	zero := 0
	return Event{Type: EventCashOut, Child: child, Amount: settled, Balance: &zero}
}

func WeeklyRefreshed(created int) Event {
	return Event{Type: EventWeeklyRefreshed, Created: created}
}

// Hub maintains the set of active WebSocket clients and broadcasts events.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast delivers ev to every client watching its child. Household-wide
// events reach everyone. A client whose buffer is full misses the event.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(ev) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Debug("dropped event for slow client", "type", ev.Type)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
