package service

import "github.com/mireva/tete/internal/core/domain"

// Call accounting: the registry-owned transitions that turn a finished room
// into history. finalizeLocked runs inside the registry mutex so the record
// append and the room deletion are one visible step.

func (r *Registry) finalizeLocked(room *domain.Room, participants []string) domain.CallRecord {
	end := r.now()
	rec := domain.CallRecord{
		Room:         room.Code,
		StartTime:    room.ConnectedAt,
		EndTime:      end,
		Duration:     end.Sub(room.ConnectedAt).Seconds(),
		Participants: participants,
	}
	r.history = append(r.history, rec)
	delete(r.rooms, room.Code)
	return rec
}

// History returns up to n call records, most recent first. n <= 0 means all.
func (r *Registry) History(n int) []domain.CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || n > len(r.history) {
		n = len(r.history)
	}
	out := make([]domain.CallRecord, 0, n)
	for i := len(r.history) - 1; i >= len(r.history)-n; i-- {
		out = append(out, r.history[i])
	}
	return out
}

// Statistics returns the current counter values.
func (r *Registry) Statistics() domain.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// ClientConnected bumps the connection counter. Called by the session layer
// for every transport connection observed.
func (r *Registry) ClientConnected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.TotalConnections++
}
