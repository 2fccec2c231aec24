package sequence_test

import (
	"testing"
	"time"

	"github.com/okian/relisten/internal/domain/model"
	"github.com/okian/relisten/internal/domain/sequence"
	. "github.com/smartystreets/goconvey/convey"
)

func event(trackID string, playedAt time.Time) model.UnifiedEvent {
	return model.UnifiedEvent{
		EventID:       "live:" + trackID + playedAt.Format(time.RFC3339),
		Source:        model.SourceLive,
		PlayedAt:      playedAt,
		TrackIdentity: model.Identity{Type: model.EntityTrack, ID: trackID, Provenance: model.ProvenanceVerified},
		NaturalKey:    trackID + "|" + playedAt.Format(time.RFC3339),
	}
}

func TestSequence(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	Convey("Given plays at 10:00, 10:20 and 11:05 on one day", t, func() {
		events := []model.UnifiedEvent{
			event("t1", day.Add(10*time.Hour)),
			event("t1", day.Add(10*time.Hour+20*time.Minute)),
			event("t2", day.Add(11*time.Hour+5*time.Minute)),
		}

		Convey("When sequencing with the default 30 minute gap", func() {
			out := sequence.New().Sequence(events)

			Convey("Then the first event opens session one with no gap", func() {
				So(out[0].SessionNumber, ShouldEqual, 1)
				So(out[0].IsNewSession, ShouldBeTrue)
				So(out[0].GapMinutes, ShouldBeNil)
				So(out[0].RepeatSequence, ShouldEqual, 0)
			})

			Convey("Then a 20 minute gap continues the session", func() {
				So(out[1].SessionNumber, ShouldEqual, 1)
				So(out[1].IsNewSession, ShouldBeFalse)
				So(*out[1].GapMinutes, ShouldEqual, 20)
			})

			Convey("Then the same track back to back is a repeat", func() {
				So(out[1].IsRepeat, ShouldBeTrue)
				So(out[1].RepeatSequence, ShouldEqual, 1)
				So(out[1].PrevTrackID, ShouldEqual, "t1")
			})

			Convey("Then a 45 minute gap opens session two", func() {
				So(out[2].SessionNumber, ShouldEqual, 2)
				So(out[2].IsNewSession, ShouldBeTrue)
				So(*out[2].GapMinutes, ShouldEqual, 45)
				So(out[2].IsRepeat, ShouldBeFalse)
				So(out[2].RepeatSequence, ShouldEqual, 0)
			})
		})
	})

	Convey("Given plays straddling midnight a few minutes apart", t, func() {
		events := []model.UnifiedEvent{
			event("t1", day.Add(23*time.Hour+55*time.Minute)),
			event("t1", day.Add(24*time.Hour+2*time.Minute)),
		}

		Convey("When sequencing in UTC", func() {
			out := sequence.New().Sequence(events)

			Convey("Then the date change opens a new session despite the small gap", func() {
				So(*out[1].GapMinutes, ShouldEqual, 7)
				So(out[1].IsNewSession, ShouldBeTrue)
				So(out[1].SessionNumber, ShouldEqual, 2)
			})
		})

		Convey("When sequencing in a zone where both fall on the same date", func() {
			west := time.FixedZone("UTC-5", -5*3600)
			out := sequence.New(sequence.WithLocation(west)).Sequence(events)

			Convey("Then no boundary fires", func() {
				So(out[1].IsNewSession, ShouldBeFalse)
				So(out[1].SessionNumber, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a run of the same track followed by a different one", t, func() {
		events := []model.UnifiedEvent{
			event("t1", day.Add(9*time.Hour)),
			event("t1", day.Add(9*time.Hour+4*time.Minute)),
			event("t1", day.Add(9*time.Hour+8*time.Minute)),
			event("t2", day.Add(9*time.Hour+12*time.Minute)),
			event("t1", day.Add(9*time.Hour+16*time.Minute)),
		}
		out := sequence.New().Sequence(events)

		Convey("Then repeat numbering counts up within the run and resets on change", func() {
			So(out[0].RepeatSequence, ShouldEqual, 0)
			So(out[1].RepeatSequence, ShouldEqual, 1)
			So(out[2].RepeatSequence, ShouldEqual, 2)
			So(out[3].RepeatSequence, ShouldEqual, 0)
			So(out[4].RepeatSequence, ShouldEqual, 0)
			So(out[4].IsRepeat, ShouldBeFalse)
		})
	})

	Convey("Given events supplied out of order with a timestamp tie", t, func() {
		a := event("a-track", day.Add(10*time.Hour))
		b := event("b-track", day.Add(10*time.Hour))
		c := event("c-track", day.Add(9*time.Hour))
		out := sequence.New().Sequence([]model.UnifiedEvent{b, a, c})

		Convey("Then ordering is by played-at with natural key breaking ties", func() {
			So(out[0].TrackIdentity.ID, ShouldEqual, "c-track")
			So(out[1].TrackIdentity.ID, ShouldEqual, "a-track")
			So(out[2].TrackIdentity.ID, ShouldEqual, "b-track")
		})

		Convey("Then session numbers never decrease", func() {
			prev := 0
			for _, se := range out {
				So(se.SessionNumber, ShouldBeGreaterThanOrEqualTo, prev)
				prev = se.SessionNumber
			}
		})
	})

	Convey("Given a shorter configured gap", t, func() {
		events := []model.UnifiedEvent{
			event("t1", day.Add(10*time.Hour)),
			event("t2", day.Add(10*time.Hour+20*time.Minute)),
		}
		out := sequence.New(sequence.WithSessionGap(15 * time.Minute)).Sequence(events)

		Convey("Then the same 20 minute gap now splits the session", func() {
			So(out[1].SessionNumber, ShouldEqual, 2)
		})
	})

	Convey("Given no events", t, func() {
		So(sequence.New().Sequence(nil), ShouldBeNil)
	})
}
