package export_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/relisten/internal/domain/model"
	"github.com/okian/relisten/internal/export"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleSnapshot() *model.Snapshot {
	gap := 20.5
	popularity := 70
	platform := "android"

	live := model.FactRow{
		SequencedEvent: model.SequencedEvent{
			UnifiedEvent: model.UnifiedEvent{
				EventID:          "live:aaa",
				Source:           model.SourceLive,
				PlayedAt:         time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC),
				TrackIdentity:    model.Identity{Type: model.EntityTrack, ID: "t1", Provenance: model.ProvenanceVerified},
				ArtistIdentity:   model.Identity{Type: model.EntityArtist, ID: "a1", Provenance: model.ProvenanceVerified},
				AlbumIdentity:    model.Identity{Type: model.EntityAlbum, ID: "al1", Provenance: model.ProvenanceVerified},
				TrackName:        "Song A",
				ArtistName:       "Artist A",
				AlbumName:        "Album A",
				DurationPlayedMS: 180000,
				Popularity:       &popularity,
			},
			SessionNumber: 1,
			IsNewSession:  true,
		},
		Playlists:     []string{"pl-1", ""},
		PlaylistCount: 1,
	}
	hist := model.FactRow{
		SequencedEvent: model.SequencedEvent{
			UnifiedEvent: model.UnifiedEvent{
				EventID:          "historical:bbb",
				Source:           model.SourceHistorical,
				PlayedAt:         time.Date(2024, 8, 1, 10, 20, 30, 0, time.UTC),
				TrackIdentity:    model.Identity{Type: model.EntityTrack, ID: "t2", Provenance: model.ProvenanceVerified},
				ArtistIdentity:   model.Identity{Type: model.EntityArtist, ID: "drv-artist-ff", Provenance: model.ProvenanceDerived},
				DurationPlayedMS: 90000,
				Platform:         &platform,
			},
			GapMinutes:    &gap,
			PrevTrackID:   "t1",
			SessionNumber: 1,
		},
		Playlists:     []string{"", ""},
		PlaylistCount: 0,
	}
	return &model.Snapshot{RunID: "run-x", Facts: []model.FactRow{live, hist}}
}

func TestWriteFactsCSV(t *testing.T) {
	Convey("Given a snapshot with rows from both sources", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "listening_history.csv")

		Convey("When writing the fact table", func() {
			err := export.WriteFactsCSV(path, sampleSnapshot(), 2)
			So(err, ShouldBeNil)

			f, err := os.Open(path)
			So(err, ShouldBeNil)
			defer f.Close()
			rows, err := csv.NewReader(f).ReadAll()
			So(err, ShouldBeNil)

			header, live, hist := rows[0], rows[1], rows[2]
			col := func(name string) int {
				for i, h := range header {
					if h == name {
						return i
					}
				}
				return -1
			}

			Convey("Then the header carries fixed-width playlist columns", func() {
				So(rows, ShouldHaveLength, 3)
				So(col("playlist_1"), ShouldBeGreaterThan, -1)
				So(col("playlist_2"), ShouldBeGreaterThan, -1)
				So(col("playlist_3"), ShouldEqual, -1)
				So(header[len(header)-1], ShouldEqual, "playlist_count")
			})

			Convey("Then inapplicable columns are empty, never fake zeroes", func() {
				So(live[col("platform")], ShouldBeEmpty)
				So(live[col("popularity")], ShouldEqual, "70")
				So(live[col("gap_minutes")], ShouldBeEmpty)
				So(hist[col("popularity")], ShouldBeEmpty)
				So(hist[col("platform")], ShouldEqual, "android")
				So(hist[col("gap_minutes")], ShouldEqual, "20.5")
			})

			Convey("Then session and playlist fields round-trip", func() {
				So(live[col("is_new_session")], ShouldEqual, "true")
				So(live[col("playlist_1")], ShouldEqual, "pl-1")
				So(live[col("playlist_2")], ShouldBeEmpty)
				So(live[col("playlist_count")], ShouldEqual, "1")
				So(hist[col("prev_track_id")], ShouldEqual, "t1")
				So(hist[col("played_at")], ShouldEqual, "2024-08-01T10:20:30Z")
			})
		})

		Convey("When a rewrite replaces an existing table", func() {
			So(export.WriteFactsCSV(path, sampleSnapshot(), 2), ShouldBeNil)
			So(export.WriteFactsCSV(path, &model.Snapshot{RunID: "run-y"}, 2), ShouldBeNil)

			f, err := os.Open(path)
			So(err, ShouldBeNil)
			defer f.Close()
			rows, err := csv.NewReader(f).ReadAll()
			So(err, ShouldBeNil)

			Convey("Then the new table fully replaces the old one", func() {
				So(rows, ShouldHaveLength, 1)
			})

			Convey("Then no temp files are left behind", func() {
				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})
		})

		Convey("When the snapshot is nil", func() {
			So(export.WriteFactsCSV(path, nil, 2), ShouldNotBeNil)
		})
	})
}

func TestWritePlaylistsCSV(t *testing.T) {
	Convey("Given a snapshot with a playlist dimension", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "playlists.csv")
		snap := &model.Snapshot{
			RunID: "run-x",
			Playlists: []model.Playlist{
				{
					PlaylistID:   "pl-1",
					PlaylistName: "Favourites",
					OwnerID:      "me",
					IsOwner:      true,
					TotalTracks:  42,
					ExtractedAt:  time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC),
				},
				{PlaylistID: "pl-2", PlaylistName: "Shared", IsPublic: true},
			},
		}

		Convey("When writing the dimension table", func() {
			So(export.WritePlaylistsCSV(path, snap), ShouldBeNil)

			f, err := os.Open(path)
			So(err, ShouldBeNil)
			defer f.Close()
			rows, err := csv.NewReader(f).ReadAll()
			So(err, ShouldBeNil)

			Convey("Then every playlist record round-trips", func() {
				So(rows, ShouldHaveLength, 3)
				So(rows[0][0], ShouldEqual, "playlist_id")
				So(rows[1], ShouldResemble, []string{
					"pl-1", "Favourites", "me", "true", "false", "false",
					"42", "2024-08-01T09:00:00Z",
				})
				So(rows[2][0], ShouldEqual, "pl-2")
				So(rows[2][4], ShouldEqual, "true")
			})

			Convey("Then an unextracted playlist has an empty timestamp", func() {
				So(rows[2][7], ShouldBeEmpty)
			})
		})

		Convey("When the snapshot is nil", func() {
			So(export.WritePlaylistsCSV(path, nil), ShouldNotBeNil)
		})
	})
}
