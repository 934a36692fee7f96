package service

import (
	"context"

	"github.com/mireva/tete/internal/core/domain"
	"github.com/mireva/tete/internal/core/port"
	"github.com/rs/zerolog/log"
)

// EventRecording is the notification name recording state changes are
// relayed under.
const EventRecording = "recording_notification"

// RelayService forwards negotiation payloads between the participants of a
// room. It never looks inside a payload; it only checks that the sender is a
// participant and passes the bytes to everyone else in the room.
type RelayService struct {
	registry *Registry
	gateway  port.RealTimeGateway
}

func NewRelayService(registry *Registry, gateway port.RealTimeGateway) *RelayService {
	return &RelayService{
		registry: registry,
		gateway:  gateway,
	}
}

// Forward relays an offer/answer/ice payload verbatim to every participant
// of the room other than the sender. Fails without any delivery if the
// sender is not a participant.
func (s *RelayService) Forward(ctx context.Context, clientID, code, event string, payload any) error {
	if !s.registry.IsParticipant(code, clientID) {
		return domain.ErrNotParticipant
	}
	for _, p := range s.registry.Participants(code) {
		if p == clientID {
			continue
		}
		s.gateway.Send(ctx, p, event, payload)
	}
	log.Debug().Str("room", code).Str("client_id", clientID).Str("event", event).Msg("Signal relayed")
	return nil
}

// Recording relays a recording state change to the other participant as a
// human-readable notification, under the same authorization as Forward.
func (s *RelayService) Recording(ctx context.Context, clientID, code string, started bool) error {
	if !s.registry.IsParticipant(code, clientID) {
		return domain.ErrNotParticipant
	}
	message := "Recording stopped"
	if started {
		message = "Recording started"
	}
	for _, p := range s.registry.Participants(code) {
		if p == clientID {
			continue
		}
		s.gateway.Send(ctx, p, EventRecording, map[string]any{
			"room":    code,
			"from":    clientID,
			"message": message,
		})
	}
	return nil
}
