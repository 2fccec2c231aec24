// Package fact joins sequenced events with dimension keys and playlist
// associations into the final fact rows.
package fact

import (
	"github.com/okian/relisten/internal/domain/model"
	"github.com/okian/relisten/internal/domain/playlist"
)

// Result carries the assembled fact rows plus the identity data-quality
// counter: events whose track identity came back empty are kept and counted,
// never silently dropped.
type Result struct {
	Rows             []model.FactRow
	ResolutionFailed int
}

// Assemble produces one fact row per sequenced event. Playlist columns are
// fixed-width: always the associator's top-N slots, empty string meaning
// null, alongside the total distinct playlist count.
func Assemble(events []model.SequencedEvent, assoc *playlist.Associator) Result {
	res := Result{Rows: make([]model.FactRow, 0, len(events))}
	topN := assoc.TopN()

	for _, e := range events {
		if e.TrackIdentity.IsZero() {
			res.ResolutionFailed++
		}

		associations, total := assoc.Associate(e.TrackIdentity.ID)
		columns := make([]string, topN)
		for _, a := range associations {
			columns[a.Rank-1] = a.PlaylistID
		}

		res.Rows = append(res.Rows, model.FactRow{
			SequencedEvent: e,
			Playlists:      columns,
			PlaylistCount:  total,
		})
	}

	return res
}
