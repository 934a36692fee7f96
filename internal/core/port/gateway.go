package port

import "context"

// RealTimeGateway is the transport capability the core consumes: per-client
// delivery plus named broadcast groups (one group per room code). Connection
// identifiers are opaque strings assigned by the transport and valid only for
// the connection's lifetime.
type RealTimeGateway interface {
	// JoinGroup adds a connected client to a named broadcast group.
	JoinGroup(group, clientID string)
	// LeaveGroup removes a client from a group. No-op if absent.
	LeaveGroup(group, clientID string)
	// Broadcast delivers an event to every current member of a group.
	Broadcast(ctx context.Context, group, event string, data any)
	// Send delivers an event to a single client. Unknown clients are not an
	// error; the peer may already be gone.
	Send(ctx context.Context, clientID, event string, data any)
}
