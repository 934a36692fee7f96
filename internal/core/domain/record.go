package domain

import "time"

// CallRecord is an immutable historical entry describing one completed call.
// It is created by call accounting when a live room empties out and is never
// mutated afterwards.
type CallRecord struct {
	Room      string    `json:"room"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	// Duration is EndTime-StartTime in seconds, sub-second precision.
	Duration float64 `json:"duration"`
	// Participants is the room membership snapshot taken at finalize time,
	// including the participant whose departure emptied the room.
	Participants []string `json:"participants"`
}

// Stats are monotonically incrementing process counters, mirrored to the
// store alongside rooms and call history.
type Stats struct {
	// TotalConnections counts every transport connection ever observed.
	TotalConnections int64 `json:"totalConnections"`
	// TotalCalls counts rooms that reached two participants.
	TotalCalls int64 `json:"totalCalls"`
	// FailedCalls counts rooms destroyed before the call ever went live.
	FailedCalls int64 `json:"failedCalls"`
}

// State is the full persistable view of the registry: everything the store
// mirrors and hands back on restart.
type State struct {
	Rooms           map[string]Room             `json:"rooms"`
	OfflineMessages map[string][]OfflineMessage `json:"offlineMessages"`
	CallRecords     []CallRecord                `json:"callRecords"`
	Stats           Stats                       `json:"stats"`
}

// EmptyState returns a State with all containers allocated. Used as the
// default when the store is absent or unreadable.
func EmptyState() State {
	return State{
		Rooms:           make(map[string]Room),
		OfflineMessages: make(map[string][]OfflineMessage),
		CallRecords:     make([]CallRecord, 0),
	}
}
