package service

import (
	"context"
	"time"

	"github.com/mireva/tete/internal/core/port"
	"github.com/rs/zerolog/log"
)

const (
	saveAttempts = 3
	saveBackoff  = 200 * time.Millisecond
)

// Persister mirrors the registry into the store. Mutations signal it and move
// on: the snapshot is taken under the registry lock, the write happens here,
// with bounded retries. A write that still fails is logged and dropped — the
// running process keeps trusting its memory, the store is best effort.
type Persister struct {
	store    port.Store
	registry *Registry
	notify   chan struct{}
	quit     chan struct{}
	done     chan struct{}
}

func NewPersister(store port.Store, registry *Registry) *Persister {
	return &Persister{
		store:    store,
		registry: registry,
		notify:   make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Flush marks the registry dirty. Signals coalesce: a burst of mutations
// while a write is in flight results in one more write.
func (p *Persister) Flush() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// SaveNow writes the current snapshot synchronously, without retries.
// Used for the final flush on shutdown.
func (p *Persister) SaveNow(ctx context.Context) error {
	return p.store.Save(ctx, p.registry.Snapshot())
}

func (p *Persister) Run() {
	defer close(p.done)
	for {
		select {
		case <-p.quit:
			return
		case <-p.notify:
			p.save(context.Background())
		}
	}
}

func (p *Persister) Stop() {
	close(p.quit)
	<-p.done
}

func (p *Persister) save(ctx context.Context) {
	state := p.registry.Snapshot()
	for attempt := 1; ; attempt++ {
		err := p.store.Save(ctx, state)
		if err == nil {
			return
		}
		if attempt == saveAttempts {
			log.Error().Err(err).Int("attempts", attempt).Msg("Store write failed, giving up; in-memory state stays authoritative")
			return
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("Store write failed, retrying")
		time.Sleep(saveBackoff)
	}
}
