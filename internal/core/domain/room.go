package domain

import "time"

// RoomCapacity is the hard participant limit per room. A room holds exactly
// one caller and one callee; anything beyond that is a different product.
const RoomCapacity = 2

// MinRoomCodeLength is the shortest room code a client may register.
const MinRoomCodeLength = 4

// Room is a two-party rendezvous context identified by a caller-chosen code.
type Room struct {
	Code         string    `json:"code"`
	Participants []string  `json:"participants"`
	Creator      string    `json:"creator"`
	CreatedAt    time.Time `json:"createdAt"`
	// ConnectedAt is zero until a participant signals the call is live.
	// It is set by an explicit call_connected event, not by the second join.
	ConnectedAt time.Time `json:"connectedAt,omitzero"`
}

// Live reports whether the call in this room has been marked connected.
func (r *Room) Live() bool {
	return !r.ConnectedAt.IsZero()
}

// Full reports whether the room has no free participant slot.
func (r *Room) Full() bool {
	return len(r.Participants) >= RoomCapacity
}

// Has reports whether id is currently a participant of the room.
func (r *Room) Has(id string) bool {
	for _, p := range r.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Clone returns a copy safe to hand out past the registry lock.
func (r *Room) Clone() Room {
	c := *r
	c.Participants = append([]string(nil), r.Participants...)
	return c
}
