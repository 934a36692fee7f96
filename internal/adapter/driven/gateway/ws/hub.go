package ws

import (
	"context"
	"sync"

	"github.com/go4org/hashtriemap"
	"github.com/rs/zerolog/log"
)

// Hub implements port.RealTimeGateway over websocket clients. Connection
// lookup is lock-free (every relayed signal does one); group membership is a
// plain map under a read-write mutex, mutated only on join/leave.
type Hub struct {
	// clients maps connection id to the client, for targeted sends.
	clients hashtriemap.HashTrieMap[string, Client]

	mu     sync.RWMutex
	groups map[string]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]map[string]struct{}),
	}
}

// Register makes a client reachable by id.
func (h *Hub) Register(c Client) {
	h.clients.Store(c.ID(), c)
	log.Debug().Str("client_id", c.ID()).Msg("Client registered")
}

// Unregister drops the client and sweeps it out of any group it is still in.
func (h *Hub) Unregister(clientID string) {
	h.clients.Delete(clientID)

	h.mu.Lock()
	for group, members := range h.groups {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	h.mu.Unlock()
	log.Debug().Str("client_id", clientID).Msg("Client unregistered")
}

func (h *Hub) JoinGroup(group, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]struct{})
		h.groups[group] = members
	}
	members[clientID] = struct{}{}
}

func (h *Hub) LeaveGroup(group, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, clientID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// Broadcast delivers an event to every current member of a group.
func (h *Hub) Broadcast(ctx context.Context, group, event string, data any) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Send(ctx, id, event, data)
	}
}

// Send delivers an event to one client. Unknown ids are dropped silently:
// the peer may have disconnected between lookup and delivery.
func (h *Hub) Send(ctx context.Context, clientID, event string, data any) {
	c, ok := h.clients.Load(clientID)
	if !ok {
		return
	}
	if err := c.Send(event, data); err != nil {
		log.Error().Err(err).Str("client_id", clientID).Str("event", event).Msg("Error sending event")
	}
}

// Stop closes every connected client. Used on shutdown.
func (h *Hub) Stop() {
	h.clients.Range(func(id string, c Client) bool {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Str("client_id", id).Msg("Error closing client connection")
		}
		h.clients.Delete(id)
		return true
	})
}
