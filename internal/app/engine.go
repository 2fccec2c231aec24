// Package app wires the reconciliation stages into one batch engine run:
// dedupe, identity resolution, source union, playlist association, temporal
// sequencing and fact assembly.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/relisten/internal/adapters/repository"
	"github.com/okian/relisten/internal/domain/dedupe"
	"github.com/okian/relisten/internal/domain/fact"
	"github.com/okian/relisten/internal/domain/identity"
	"github.com/okian/relisten/internal/domain/model"
	"github.com/okian/relisten/internal/domain/playlist"
	"github.com/okian/relisten/internal/domain/sequence"
	"github.com/okian/relisten/internal/domain/unify"
	"github.com/okian/relisten/internal/ingest"
	"github.com/okian/relisten/pkg/logger"
	"github.com/okian/relisten/pkg/metrics"
)

// Engine recomputes the full fact snapshot from a raw input batch. Every
// stage reads an immutable input and produces a new immutable output, so a
// run is deterministic for identical input.
type Engine struct {
	topN       int
	sessionGap time.Duration
	loc        *time.Location
	hashLen    int

	store  repository.Store
	logger logger.Logger
}

// New constructs an Engine with default configuration.
func New(opts ...Option) *Engine {
	e := &Engine{
		topN:       defaultTopN,
		sessionGap: defaultSessionGap,
		loc:        time.UTC,
		hashLen:    defaultHashLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("engine")
	}
	if e.store == nil {
		e.store = repository.NewMemoryStore(context.Background())
	}
	return e
}

// Store returns the snapshot store the engine publishes to.
func (e *Engine) Store() repository.Store { return e.store }

// Run executes one full-refresh reconciliation over the batch and publishes
// the resulting snapshot. On error nothing is published and the previously
// published snapshot remains authoritative.
func (e *Engine) Run(ctx context.Context, batch *ingest.Batch) (*model.Snapshot, error) {
	if batch == nil {
		return nil, ErrNilBatch
	}
	metrics.RecordRunStarted()
	start := time.Now()

	summary := model.Summary{
		LiveInput:       len(batch.LivePlays),
		HistoricalInput: len(batch.ExportPlays),
		PlaylistInput:   len(batch.Playlists),
		MembershipInput: len(batch.PlaylistTracks),
	}
	metrics.RecordLiveInput(summary.LiveInput)
	metrics.RecordHistoricalInput(summary.HistoricalInput)
	metrics.RecordPlaylistInput(summary.PlaylistInput + summary.MembershipInput)

	// Stage 1: collapse re-ingested duplicates, latest load wins.
	live, liveDropped := dedupe.Latest(batch.LivePlays)
	hist, histDropped := dedupe.Latest(batch.ExportPlays)
	playlists, playlistDropped := dedupe.Latest(batch.Playlists)
	links, linkDropped := dedupe.Latest(batch.PlaylistTracks)
	summary.DedupedOut = liveDropped + histDropped + playlistDropped + linkDropped
	metrics.RecordDedupeDropped(summary.DedupedOut)

	// Stage 2: build the identity catalog. Entity types write disjoint
	// catalogs, so the three observations run concurrently without locking.
	resolver := identity.New(identity.WithHashLength(e.hashLen))
	e.observeVerified(resolver, live, hist)
	summary.ResolutionConflicts = resolver.Conflicts()
	metrics.RecordResolutionConflicts(summary.ResolutionConflicts)

	// Stage 3: union both sources onto the uniform schema.
	unified := unify.Merge(live, hist, resolver)
	summary.ExcludedUnparseable = unified.ExcludedUnparseable
	summary.ExcludedNullTimestamp = unified.ExcludedNullTimestamp
	metrics.RecordExcludedUnparseable(unified.ExcludedUnparseable)
	metrics.RecordExcludedNullTimestamp(unified.ExcludedNullTimestamp)

	// Stage 4: bounded top-N playlist association index.
	assoc := playlist.NewAssociator(links, playlist.WithTopN(e.topN))

	// Stage 5: ordered pass deriving session and repeat semantics.
	sequencer := sequence.New(
		sequence.WithSessionGap(e.sessionGap),
		sequence.WithLocation(e.loc),
	)
	sequenced := sequencer.Sequence(unified.Events)

	// Stage 6: final fact rows.
	assembled := fact.Assemble(sequenced, assoc)
	summary.ResolutionFailed = assembled.ResolutionFailed
	summary.FactRows = len(assembled.Rows)
	metrics.RecordResolutionFailed(assembled.ResolutionFailed)

	snap := &model.Snapshot{
		RunID:     uuid.NewString(),
		BuiltAt:   time.Now().UTC(),
		Facts:     assembled.Rows,
		Playlists: playlists,
		Summary:   summary,
	}
	if err := e.store.Publish(ctx, snap); err != nil {
		metrics.RecordRunFailed()
		return nil, fmt.Errorf("publish snapshot: %w", err)
	}

	elapsed := time.Since(start)
	metrics.RecordRunDuration(elapsed.Seconds())
	metrics.UpdateSessionsTotal(sessionCount(assembled.Rows))

	e.logger.Info(ctx, "reconciliation run complete",
		logger.String("run_id", snap.RunID),
		logger.Duration("elapsed", elapsed),
		logger.Int("live_input", summary.LiveInput),
		logger.Int("historical_input", summary.HistoricalInput),
		logger.Int("deduped_out", summary.DedupedOut),
		logger.Int("excluded_unparseable", summary.ExcludedUnparseable),
		logger.Int("excluded_null_timestamp", summary.ExcludedNullTimestamp),
		logger.Int("resolution_failed", summary.ResolutionFailed),
		logger.Int("resolution_conflicts", summary.ResolutionConflicts),
		logger.Int("fact_rows", summary.FactRows),
	)
	return snap, nil
}

// observeVerified feeds every verified identifier in the batch to the
// resolver, one goroutine per entity type.
func (e *Engine) observeVerified(resolver *identity.Resolver, live []model.LivePlay, hist []model.ExportPlay) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for _, p := range live {
			resolver.Observe(model.EntityTrack, p.TrackName, p.TrackID, p.LoadedAt)
		}
		for _, p := range hist {
			if id, ok := unify.ParseTrackURI(p.TrackURI); ok {
				resolver.Observe(model.EntityTrack, p.TrackName, id, p.LoadedAt)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for _, p := range live {
			resolver.Observe(model.EntityArtist, p.ArtistName, p.ArtistID, p.LoadedAt)
		}
	}()
	go func() {
		defer wg.Done()
		for _, p := range live {
			resolver.Observe(model.EntityAlbum, p.AlbumName, p.AlbumID, p.LoadedAt)
		}
	}()

	wg.Wait()
}

// sessionCount returns the highest session number in the fact set.
func sessionCount(rows []model.FactRow) int {
	if len(rows) == 0 {
		return 0
	}
	return rows[len(rows)-1].SessionNumber
}
