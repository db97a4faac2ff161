package snapshot

import (
	"context"
	"time"

	"github.com/matzehuels/stylesync/pkg/observability"
)

// Instrument wraps a store so reads and writes are reported to the
// observability snapshot hooks under the given backend name.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

type instrumented struct {
	Store
	backend string
}

func (s *instrumented) Get(ctx context.Context, id string) (*Snapshot, error) {
	start := time.Now()
	snap, err := s.Store.Get(ctx, id)
	observability.Snapshot().OnLoad(ctx, s.backend, id, time.Since(start), err)
	return snap, err
}

func (s *instrumented) Set(ctx context.Context, snap *Snapshot) error {
	start := time.Now()
	err := s.Store.Set(ctx, snap)
	observability.Snapshot().OnSave(ctx, s.backend, snap.ID, time.Since(start), err)
	return err
}
