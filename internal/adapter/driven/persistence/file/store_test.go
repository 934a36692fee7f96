package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mireva/tete/internal/core/domain"
)

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s := NewStore(path)
	ctx := context.Background()

	state := domain.EmptyState()
	state.Rooms["ABCD"] = domain.Room{
		Code:         "ABCD",
		Participants: []string{"a", "b"},
		Creator:      "a",
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	state.OfflineMessages["WXYZ"] = []domain.OfflineMessage{
		{From: "c", Message: json.RawMessage(`"hello"`), Timestamp: time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)},
	}
	state.CallRecords = append(state.CallRecords, domain.CallRecord{
		Room: "OLD1", Duration: 12.5, Participants: []string{"a"},
	})
	state.Stats = domain.Stats{TotalConnections: 7, TotalCalls: 3, FailedCalls: 1}

	if err := s.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := NewStore(path).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	room := got.Rooms["ABCD"]
	if room.Creator != "a" || len(room.Participants) != 2 {
		t.Errorf("room = %+v", room)
	}
	if len(got.OfflineMessages["WXYZ"]) != 1 || string(got.OfflineMessages["WXYZ"][0].Message) != `"hello"` {
		t.Errorf("messages = %+v", got.OfflineMessages)
	}
	if len(got.CallRecords) != 1 || got.CallRecords[0].Duration != 12.5 {
		t.Errorf("records = %+v", got.CallRecords)
	}
	if got.Stats != state.Stats {
		t.Errorf("stats = %+v, want %+v", got.Stats, state.Stats)
	}
}

func TestLoadAbsentFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.json"))
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Rooms == nil || got.OfflineMessages == nil {
		t.Error("absent file must load as allocated empty state")
	}
	if len(got.Rooms) != 0 || len(got.CallRecords) != 0 {
		t.Errorf("state not empty: %+v", got)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("corrupt file must not fail startup, got %v", err)
	}
	if len(got.Rooms) != 0 {
		t.Errorf("state not empty: %+v", got)
	}
}

func TestSaveReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path)
	ctx := context.Background()

	first := domain.EmptyState()
	first.Stats.TotalCalls = 1
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := domain.EmptyState()
	second.Stats.TotalCalls = 2
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Stats.TotalCalls != 2 {
		t.Errorf("TotalCalls = %d, want last write", got.Stats.TotalCalls)
	}

	// no leftover temp files
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the state file", len(entries))
	}
}
