package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/okian/relisten/internal/domain/model"
	"github.com/okian/relisten/pkg/metrics"
)

// MemoryStore implements Store with an atomic pointer swap. A failed run
// never calls Publish, so the previous snapshot stays authoritative.
type MemoryStore struct {
	current atomic.Pointer[model.Snapshot]
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore(_ context.Context) *MemoryStore {
	return &MemoryStore{}
}

// Publish makes snap the authoritative snapshot.
func (s *MemoryStore) Publish(_ context.Context, snap *model.Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}
	s.current.Store(snap)
	metrics.RecordSnapshotPublish(time.Now().Unix())
	metrics.UpdateFactRows(len(snap.Facts))
	return nil
}

// Current returns the authoritative snapshot.
func (s *MemoryStore) Current(_ context.Context) (*model.Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// FactCount returns the number of fact rows in the current snapshot.
func (s *MemoryStore) FactCount(ctx context.Context) int {
	snap, err := s.Current(ctx)
	if err != nil {
		return 0
	}
	return len(snap.Facts)
}
