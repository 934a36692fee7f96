package service

import (
	"context"
	"encoding/json"

	"github.com/mireva/tete/internal/core/domain"
	"github.com/mireva/tete/internal/core/port"
	"github.com/rs/zerolog/log"
)

// Server-pushed event names.
const (
	EventJoined          = "joined"
	EventPeerJoined      = "peer_joined"
	EventLeave           = "leave"
	EventOfflineMessages = "offline_messages"
)

// SessionService drives the per-client room lifecycle: create/join/leave
// intents, the call-connected signal, offline messages, and the cleanup that
// runs when the transport reports a disconnect. It owns no state itself; the
// registry does, the gateway delivers.
type SessionService struct {
	registry *Registry
	gateway  port.RealTimeGateway
	persist  *Persister
}

func NewSessionService(registry *Registry, gateway port.RealTimeGateway, persist *Persister) *SessionService {
	return &SessionService{
		registry: registry,
		gateway:  gateway,
		persist:  persist,
	}
}

// Connect records a new transport connection.
func (s *SessionService) Connect(ctx context.Context, clientID string) {
	s.registry.ClientConnected()
	s.persist.Flush()
}

// Create registers a room and puts the creator in its broadcast group.
func (s *SessionService) Create(ctx context.Context, clientID, code string) (domain.Room, error) {
	room, err := s.registry.Create(code, clientID)
	if err != nil {
		return domain.Room{}, err
	}
	s.gateway.JoinGroup(code, clientID)
	log.Info().Str("room", code).Str("client_id", clientID).Msg("Room created")
	s.persist.Flush()
	return room, nil
}

// Join adds the client to the room, hands it any messages left for the room,
// announces the join to the group, and — when this join completed the pair —
// tells the first participant its peer has arrived.
func (s *SessionService) Join(ctx context.Context, clientID, code string) (domain.Room, error) {
	out, err := s.registry.Join(code, clientID)
	if err != nil {
		return domain.Room{}, err
	}
	s.gateway.JoinGroup(code, clientID)

	if len(out.Drained) > 0 {
		s.gateway.Send(ctx, clientID, EventOfflineMessages, map[string]any{
			"room":     code,
			"messages": out.Drained,
		})
	}

	s.gateway.Broadcast(ctx, code, EventJoined, map[string]any{
		"room":     code,
		"clientId": clientID,
	})

	if out.CallStarted {
		s.gateway.Send(ctx, out.Room.Participants[0], EventPeerJoined, map[string]any{
			"room": code,
			"peer": clientID,
		})
	}

	log.Info().Str("room", code).Str("client_id", clientID).Int("participants", len(out.Room.Participants)).Msg("Client joined room")
	s.persist.Flush()
	return out.Room, nil
}

// Leave handles an explicit leave intent. Leaving a room you are not in is
// not an error.
func (s *SessionService) Leave(ctx context.Context, clientID, code string) {
	s.removeFromRoom(ctx, clientID, code)
	s.persist.Flush()
}

// Disconnect runs the same cleanup as Leave for every room the client is in.
// Triggered by the transport, not the client.
func (s *SessionService) Disconnect(ctx context.Context, clientID, reason string) {
	codes := s.registry.RoomsOf(clientID)
	for _, code := range codes {
		s.removeFromRoom(ctx, clientID, code)
	}
	log.Info().Str("client_id", clientID).Str("reason", reason).Int("rooms", len(codes)).Msg("Client disconnected")
	s.persist.Flush()
}

// CallConnected marks the room's call as live.
func (s *SessionService) CallConnected(ctx context.Context, clientID, code string) error {
	if err := s.registry.MarkConnected(code); err != nil {
		return err
	}
	log.Info().Str("room", code).Str("client_id", clientID).Msg("Call connected")
	s.persist.Flush()
	return nil
}

// LeaveMessage queues an opaque payload for the room's next join.
func (s *SessionService) LeaveMessage(ctx context.Context, clientID, code string, payload json.RawMessage) {
	s.registry.LeaveMessage(code, clientID, payload)
	s.persist.Flush()
}

func (s *SessionService) removeFromRoom(ctx context.Context, clientID, code string) {
	out := s.registry.Leave(code, clientID)
	s.gateway.LeaveGroup(code, clientID)
	if !out.Removed {
		return
	}

	s.gateway.Broadcast(ctx, code, EventLeave, map[string]any{
		"room":     code,
		"clientId": clientID,
	})

	if out.Record != nil {
		log.Info().Str("room", code).Float64("duration", out.Record.Duration).Msg("Call finalized")
	}
	if out.Failed {
		log.Info().Str("room", code).Msg("Room closed before call connected")
	}
}
