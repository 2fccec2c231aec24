// Package sequence computes session boundaries, inter-event gaps and
// repeat-play numbering in one ordered pass over the unified stream.
package sequence

import (
	"sort"
	"time"

	"github.com/okian/relisten/internal/domain/model"
)

// Sequencer folds the ordered event stream, carrying three pieces of state:
// the previous event's timestamp, the previous event's track identity, and a
// running session counter. Everything it emits is a pure function of the
// ordered input, fully re-derivable each run.
type Sequencer struct {
	sessionGap time.Duration
	loc        *time.Location
}

// New creates a Sequencer with the given options applied.
func New(opts ...Option) *Sequencer {
	s := &Sequencer{
		sessionGap: defaultSessionGap,
		loc:        time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sequence sorts events ascending by played-at (ties broken by the raw row's
// natural key, making the order total and deterministic) and derives session
// and repeat fields.
//
// A new session starts when any of these holds: first event ever; minutes
// since the previous event exceed the gap threshold; the calendar date in
// the configured location differs from the previous event's. The date rule
// deliberately fires at midnight even for a gap of seconds.
func (s *Sequencer) Sequence(events []model.UnifiedEvent) []model.SequencedEvent {
	if len(events) == 0 {
		return nil
	}

	ordered := make([]model.UnifiedEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].PlayedAt.Equal(ordered[j].PlayedAt) {
			return ordered[i].PlayedAt.Before(ordered[j].PlayedAt)
		}
		return ordered[i].NaturalKey < ordered[j].NaturalKey
	})

	out := make([]model.SequencedEvent, len(ordered))

	var (
		prevAt         time.Time
		prevTrack      model.Identity
		prevArtist     model.Identity
		sessionNumber  int
		repeatSequence int
	)

	for i, e := range ordered {
		se := model.SequencedEvent{UnifiedEvent: e}

		if i == 0 {
			sessionNumber = 1
			se.IsNewSession = true
			repeatSequence = 0
		} else {
			gap := e.PlayedAt.Sub(prevAt).Minutes()
			se.GapMinutes = &gap
			se.PrevTrackID = prevTrack.ID
			se.PrevArtistID = prevArtist.ID

			newSession := gap > s.sessionGap.Minutes() ||
				!sameCalendarDate(prevAt, e.PlayedAt, s.loc)
			if newSession {
				sessionNumber++
				se.IsNewSession = true
			}

			if e.TrackIdentity.ID == prevTrack.ID {
				se.IsRepeat = true
				repeatSequence++
			} else {
				repeatSequence = 0
			}
		}

		se.SessionNumber = sessionNumber
		se.RepeatSequence = repeatSequence
		out[i] = se

		prevAt = e.PlayedAt
		prevTrack = e.TrackIdentity
		prevArtist = e.ArtistIdentity
	}

	return out
}

// sameCalendarDate reports whether two instants fall on the same calendar
// date in the given location.
func sameCalendarDate(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
