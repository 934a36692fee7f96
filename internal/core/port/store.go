package port

import (
	"context"

	"github.com/mireva/tete/internal/core/domain"
)

// Store is the durable mirror of the registry. The in-memory registry stays
// the source of truth for the running process; the store only has to survive
// a restart. Load is called once at startup, Save after every mutation.
type Store interface {
	Load(ctx context.Context) (domain.State, error)
	Save(ctx context.Context, state domain.State) error
}
