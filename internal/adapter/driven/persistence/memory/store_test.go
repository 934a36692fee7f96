package memory

import (
	"context"
	"testing"

	"github.com/mireva/tete/internal/core/domain"
)

func TestSaveLoad(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Rooms) != 0 {
		t.Errorf("fresh store not empty: %+v", got)
	}

	state := domain.EmptyState()
	state.Stats.TotalConnections = 5
	if err := s.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Stats.TotalConnections != 5 {
		t.Errorf("TotalConnections = %d, want 5", got.Stats.TotalConnections)
	}
}
