package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tidegram/backend/internal/models"
)

// SendHandler consumes inbound chat send requests from established
// connections. There is exactly one implementation wired in (the message
// router); the indirection exists for tests.
type SendHandler interface {
	HandleSend(ctx context.Context, client *Client, req models.SendMessageRequest)
}

// Deliverer is the addressing surface the fan-out paths use: a user's private
// destination plus a shared broadcast destination.
type Deliverer interface {
	SendToUser(userID uint, ev Event) int
	Broadcast(ev Event)
}

// Hub is the connection manager. It owns the handshake-to-teardown lifecycle
// of every live connection, keeps the presence registry in step, and maps a
// user identifier to the connections that can reach them.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{}

	presence    *PresenceRegistry
	sendHandler SendHandler
	log         *zap.Logger

	pongWait   time.Duration
	pingPeriod time.Duration
}

// NewHub creates a hub around the given presence registry. heartbeat is the
// ping interval; zero selects the default.
func NewHub(presence *PresenceRegistry, heartbeat time.Duration, log *zap.Logger) *Hub {
	pongWait := defaultPongWait
	if heartbeat > 0 {
		// Pings must arrive comfortably inside the read deadline.
		pongWait = heartbeat * 10 / 9
	}
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		presence:   presence,
		log:        log,
		pongWait:   pongWait,
		pingPeriod: pongWait * 9 / 10,
	}
}

// SetSendHandler wires the inbound chat dispatcher. Must be called before the
// first connection is attached.
func (h *Hub) SetSendHandler(handler SendHandler) {
	h.sendHandler = handler
}

// Presence exposes the registry for read-only queries (snapshot endpoint).
func (h *Hub) Presence() *PresenceRegistry {
	return h.presence
}

// Attach binds an authenticated identity to a fresh connection, registers it
// with the presence registry and starts its pumps. The connection is
// ESTABLISHED from here until teardown.
func (h *Hub) Attach(userID uint, conn *websocket.Conn) *Client {
	client := newClient(h, userID, conn)

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
	h.mu.Unlock()

	h.presence.Register(userID, client.handle)

	go client.writePump()
	go client.readPump()

	h.log.Info("websocket client connected",
		zap.Uint("user_id", userID),
		zap.String("handle", string(client.handle)))
	return client
}

// detach removes a client on teardown (close frame, transport error, missed
// heartbeats) and releases its presence handle. Safe to call more than once.
func (h *Hub) detach(client *Client) {
	h.mu.Lock()
	set, ok := h.clients[client.userID]
	if ok {
		if _, present := set[client]; !present {
			ok = false
		} else {
			delete(set, client)
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	h.presence.Unregister(client.userID, client.handle)
	close(client.done)
	_ = client.conn.Close()

	h.log.Info("websocket client disconnected",
		zap.Uint("user_id", client.userID),
		zap.String("handle", string(client.handle)))
}

// dispatch routes one inbound frame from an established connection.
func (h *Hub) dispatch(client *Client, frame inboundFrame) {
	switch frame.Type {
	case EventChatSend:
		var req models.SendMessageRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			client.deliver(Event{Type: EventChatError, Data: errorPayload{
				Reason:  "malformed_payload",
				Message: "could not parse chat:send payload",
			}})
			return
		}
		if h.sendHandler == nil {
			h.log.Error("chat:send received but no send handler wired")
			return
		}
		h.sendHandler.HandleSend(context.Background(), client, req)
	default:
		client.deliver(Event{Type: EventChatError, Data: errorPayload{
			Reason:  "unknown_event",
			Message: "unsupported event type: " + frame.Type,
		}})
	}
}

// SendToUser delivers an event to every live connection of one user and
// reports how many accepted it. Zero is not an error: the recipient is simply
// unreachable right now.
func (h *Hub) SendToUser(userID uint, ev Event) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for client := range h.clients[userID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range targets {
		if client.deliver(ev) {
			delivered++
		}
	}
	return delivered
}

// Broadcast feeds the shared activity destination: every live connection.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	targets := make([]*Client, 0)
	for _, set := range h.clients {
		for client := range set {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.deliver(ev)
	}
}
