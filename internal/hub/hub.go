package hub

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/mwarren/mexc-relay/internal/model"
	"github.com/mwarren/mexc-relay/internal/state"
)

// ErrSubscriberClosed is returned by Send on a subscriber whose connection
// is gone.
var ErrSubscriberClosed = errors.New("subscriber closed")

// Subscriber is one downstream connection.
type Subscriber interface {
	ID() string
	Send(data []byte) error
	Close()
}

// Request is an inbound subscriber message.
type Request struct {
	Type string `json:"type"`
}

// RequestHistory asks for a full snapshot of the history ring.
const RequestHistory = "request_history"

// HistoryResponse answers a history request.
type HistoryResponse struct {
	Type string        `json:"type"`
	Data []model.Quote `json:"data"`
}

// Hub tracks connected subscribers and fans broadcast quotes out to them.
type Hub struct {
	st     *state.State
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[string]Subscriber
}

// NewHub creates a hub reading quote state from st.
func NewHub(st *state.State, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		st:     st,
		logger: logger,
		subs:   make(map[string]Subscriber),
	}
}

// Register adds a subscriber and immediately pushes the current quote, if
// one exists. History is not pushed automatically; the subscriber asks for
// it explicitly.
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	h.subs[sub.ID()] = sub
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.Info("subscriber connected", "id", sub.ID(), "subscribers", count)

	if q, ok := h.st.Latest(); ok {
		if data, err := json.Marshal(q); err == nil {
			if err := sub.Send(data); err != nil {
				h.Unregister(sub.ID())
			}
		}
	}
}

// Unregister removes a subscriber and closes its connection.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	count := len(h.subs)
	h.mu.Unlock()

	if ok {
		sub.Close()
		h.logger.Info("subscriber disconnected", "id", id, "subscribers", count)
	}
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Broadcast delivers a quote to every subscriber. Failed sends prune the
// subscriber; they never abort delivery to the rest and never surface to
// the caller.
func (h *Hub) Broadcast(q model.Quote) {
	data, err := json.Marshal(q)
	if err != nil {
		h.logger.Error("marshal broadcast quote", "error", err)
		return
	}

	// Snapshot the membership so connect/disconnect during delivery
	// cannot race the iteration.
	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	var failed []string
	for _, sub := range targets {
		if err := sub.Send(data); err != nil {
			failed = append(failed, sub.ID())
		}
	}

	for _, id := range failed {
		h.logger.Warn("pruning dead subscriber", "id", id)
		h.Unregister(id)
	}
}

// HandleRequest processes one inbound message from a subscriber. Unknown
// or malformed requests are logged and ignored.
func (h *Hub) HandleRequest(sub Subscriber, raw []byte) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		h.logger.Warn("malformed subscriber request", "id", sub.ID(), "error", err)
		return
	}

	switch req.Type {
	case RequestHistory:
		resp := HistoryResponse{Type: "history", Data: h.st.History()}
		data, err := json.Marshal(resp)
		if err != nil {
			h.logger.Error("marshal history response", "error", err)
			return
		}
		if err := sub.Send(data); err != nil {
			h.Unregister(sub.ID())
		}

	default:
		h.logger.Debug("ignoring unknown request", "id", sub.ID(), "type", req.Type)
	}
}
