package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/mireva/tete/internal/core/domain"
)

// Registry is the authoritative in-memory record of rooms, pending offline
// messages, call history and counters. Every mutation goes through it, under
// one mutex, so interleaved create/join/leave on the same code can never
// overfill a room, and compound operations (join+drain, leave+finalize) are
// visible to readers as a single step. The store only mirrors what lives here.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*domain.Room
	pending  map[string][]domain.OfflineMessage
	history  []domain.CallRecord
	stats    domain.Stats
	byClient map[string]map[string]struct{}

	now func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]*domain.Room),
		pending:  make(map[string][]domain.OfflineMessage),
		byClient: make(map[string]map[string]struct{}),
		now:      time.Now,
	}
}

// JoinOutcome is what a successful Join hands back: the room as it looks
// after the join, the offline messages drained by it, and whether this join
// filled the second slot.
type JoinOutcome struct {
	Room        domain.Room
	Drained     []domain.OfflineMessage
	CallStarted bool
}

// LeaveOutcome describes the effect of a Leave. Record is non-nil when the
// departure emptied a live room and a call record was finalized; Failed is
// set when the departure emptied a room that never went live.
type LeaveOutcome struct {
	Removed   bool
	Remaining []string
	Record    *domain.CallRecord
	Failed    bool
}

// Create registers a new room with the creator as sole participant.
func (r *Registry) Create(code, creatorID string) (domain.Room, error) {
	if len(code) < domain.MinRoomCodeLength {
		return domain.Room{}, domain.ErrInvalidCode
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[code]; ok {
		return domain.Room{}, domain.ErrRoomExists
	}
	room := &domain.Room{
		Code:         code,
		Participants: []string{creatorID},
		Creator:      creatorID,
		CreatedAt:    r.now(),
	}
	r.rooms[code] = room
	r.indexLocked(creatorID, code)
	return room.Clone(), nil
}

// Join appends clientID to the room and atomically drains the room's pending
// offline messages. Joining a room you are already in is a no-op success and
// still drains: delivery is owed to the next successful join, whoever it is.
func (r *Registry) Join(code, clientID string) (JoinOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return JoinOutcome{}, domain.ErrRoomNotFound
	}

	var added bool
	if !room.Has(clientID) {
		if room.Full() {
			return JoinOutcome{}, domain.ErrRoomFull
		}
		room.Participants = append(room.Participants, clientID)
		r.indexLocked(clientID, code)
		added = true
	}

	out := JoinOutcome{Room: room.Clone(), Drained: r.pending[code]}
	delete(r.pending, code)

	// Only the join that filled the second slot starts the call; a rejoin
	// of an already-full room must not count or notify again.
	if added && len(room.Participants) == domain.RoomCapacity {
		out.CallStarted = true
		r.stats.TotalCalls++
	}
	return out, nil
}

// Leave removes clientID from the room. Absent rooms and non-members are a
// no-op, not an error. When the room empties, the finalize-or-discard
// transition happens here, under the same lock acquisition, so no reader can
// see the room gone without its call record (or failed-call count) in place.
func (r *Registry) Leave(code, clientID string) LeaveOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unindexLocked(clientID, code)

	room, ok := r.rooms[code]
	if !ok || !room.Has(clientID) {
		return LeaveOutcome{}
	}

	// Snapshot before removal: a finalized record names everyone who was in
	// the room when the last departure began, departing client included.
	before := append([]string(nil), room.Participants...)

	kept := room.Participants[:0]
	for _, p := range room.Participants {
		if p != clientID {
			kept = append(kept, p)
		}
	}
	room.Participants = kept

	out := LeaveOutcome{
		Removed:   true,
		Remaining: append([]string(nil), room.Participants...),
	}
	if len(room.Participants) > 0 {
		return out
	}

	if room.Live() {
		rec := r.finalizeLocked(room, before)
		out.Record = &rec
	} else {
		delete(r.rooms, code)
		r.stats.FailedCalls++
		out.Failed = true
	}
	return out
}

// IsParticipant is the authorization check for relay and status operations.
func (r *Registry) IsParticipant(code, clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	return ok && room.Has(clientID)
}

// Participants returns the current membership of a room, nil if unknown.
func (r *Registry) Participants(code string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok {
		return nil
	}
	return append([]string(nil), room.Participants...)
}

// MarkConnected records that the call in the room is live. Repeated calls
// overwrite the timestamp: the most recent signal wins.
func (r *Registry) MarkConnected(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.ConnectedAt = r.now()
	return nil
}

// LeaveMessage queues a message for the room's next successful join. The
// queue is keyed by code independent of room lifetime, so messages left
// after a call ended are delivered if the code is ever reused.
func (r *Registry) LeaveMessage(code, from string, payload json.RawMessage) domain.OfflineMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := domain.NewOfflineMessage(from, payload, r.now())
	r.pending[code] = append(r.pending[code], msg)
	return msg
}

// PendingMessages is a non-consuming peek at a room's queued messages.
func (r *Registry) PendingMessages(code string) []domain.OfflineMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.OfflineMessage(nil), r.pending[code]...)
}

// RoomsOf returns the codes of every room the client is currently in.
// Disconnect cleanup sweeps exactly these instead of scanning the registry.
func (r *Registry) RoomsOf(clientID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]string, 0, len(r.byClient[clientID]))
	for code := range r.byClient[clientID] {
		codes = append(codes, code)
	}
	return codes
}

// Snapshot deep-copies the registry state for persistence. Held under the
// lock only for the duration of the copy; the store write happens elsewhere.
func (r *Registry) Snapshot() domain.State {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := domain.EmptyState()
	for code, room := range r.rooms {
		state.Rooms[code] = room.Clone()
	}
	for code, msgs := range r.pending {
		state.OfflineMessages[code] = append([]domain.OfflineMessage(nil), msgs...)
	}
	state.CallRecords = append(state.CallRecords, r.history...)
	state.Stats = r.stats
	return state
}

// Restore replaces the registry contents with a previously saved state.
// Called once at startup, before any client connects.
func (r *Registry) Restore(state domain.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms = make(map[string]*domain.Room, len(state.Rooms))
	r.byClient = make(map[string]map[string]struct{})
	for code, room := range state.Rooms {
		c := room.Clone()
		r.rooms[code] = &c
		for _, p := range c.Participants {
			r.indexLocked(p, code)
		}
	}
	r.pending = make(map[string][]domain.OfflineMessage, len(state.OfflineMessages))
	for code, msgs := range state.OfflineMessages {
		r.pending[code] = append([]domain.OfflineMessage(nil), msgs...)
	}
	r.history = append([]domain.CallRecord(nil), state.CallRecords...)
	r.stats = state.Stats
}

func (r *Registry) indexLocked(clientID, code string) {
	set, ok := r.byClient[clientID]
	if !ok {
		set = make(map[string]struct{})
		r.byClient[clientID] = set
	}
	set[code] = struct{}{}
}

func (r *Registry) unindexLocked(clientID, code string) {
	set, ok := r.byClient[clientID]
	if !ok {
		return
	}
	delete(set, code)
	if len(set) == 0 {
		delete(r.byClient, clientID)
	}
}
