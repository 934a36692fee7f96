package domain

import "errors"

// Error taxonomy for room operations. The text is what clients see in the
// acknowledgment's error field, so it is phrased for humans, not for wrapping.
var (
	ErrInvalidCode    = errors.New("Room code must be at least 4 characters")
	ErrRoomExists     = errors.New("Room already exists")
	ErrRoomNotFound   = errors.New("Room does not exist")
	ErrRoomFull       = errors.New("Room is full")
	ErrNotParticipant = errors.New("Not a participant of this room")
	ErrInvalidPayload = errors.New("Missing required field")
)
