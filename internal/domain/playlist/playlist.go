// Package playlist associates played tracks with the playlists currently
// containing them, bounded to the top-N most recent memberships.
package playlist

import (
	"sort"

	"github.com/okian/relisten/internal/domain/model"
)

// Associator indexes playlist memberships by track and answers bounded
// top-N lookups. The index is grouped and ranked once up front, so
// association never materializes anything quadratic in events x playlists.
type Associator struct {
	byTrack map[string][]model.PlaylistTrack
	topN    int
}

// NewAssociator builds the membership index from deduplicated
// playlist-track links.
func NewAssociator(links []model.PlaylistTrack, opts ...Option) *Associator {
	a := &Associator{
		byTrack: make(map[string][]model.PlaylistTrack),
		topN:    defaultTopN,
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, l := range links {
		a.byTrack[l.TrackID] = append(a.byTrack[l.TrackID], l)
	}
	// Rank once per track: membership recency desc, playlist id asc on ties
	// so repeated runs produce identical association order.
	for _, memberships := range a.byTrack {
		sort.SliceStable(memberships, func(i, j int) bool {
			if !memberships[i].AddedAt.Equal(memberships[j].AddedAt) {
				return memberships[i].AddedAt.After(memberships[j].AddedAt)
			}
			return memberships[i].PlaylistID < memberships[j].PlaylistID
		})
	}

	return a
}

// TopN returns the configured association bound.
func (a *Associator) TopN() int { return a.topN }

// Associate returns the ranked top-N playlist associations for a track and
// the total count of distinct playlists containing it, which may exceed N.
// A track on no playlist yields zero associations; that is not an error.
func (a *Associator) Associate(trackID string) ([]model.PlaylistAssociation, int) {
	memberships := a.byTrack[trackID]
	if len(memberships) == 0 {
		return nil, 0
	}

	n := a.topN
	if len(memberships) < n {
		n = len(memberships)
	}
	out := make([]model.PlaylistAssociation, n)
	for i := 0; i < n; i++ {
		out[i] = model.PlaylistAssociation{
			PlaylistID: memberships[i].PlaylistID,
			Rank:       i + 1,
		}
	}
	return out, len(memberships)
}
