// Package repository defines the published-snapshot store and its errors.
//
// The engine recomputes the full fact set each run. Publishing swaps the
// whole snapshot atomically: readers either see the previous complete
// snapshot or the new complete snapshot, never a partially-built one.
package repository

import (
	"context"

	"github.com/okian/relisten/internal/domain/model"
)

// Store provides access to the currently authoritative snapshot.
type Store interface {
	// Publish makes a complete snapshot the authoritative one.
	Publish(ctx context.Context, snap *model.Snapshot) error

	// Current returns the authoritative snapshot, or ErrNoSnapshot when no
	// run has published yet.
	Current(ctx context.Context) (*model.Snapshot, error)

	// FactCount returns the number of fact rows in the current snapshot,
	// zero when nothing has been published.
	FactCount(ctx context.Context) int
}
