// Package export writes the published fact table and its playlist dimension
// for downstream consumers.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/okian/relisten/internal/domain/model"
)

// playedAtLayout formats fact timestamps in the output tables.
const playedAtLayout = time.RFC3339

// WriteFactsCSV writes the fact table to path. The file is written to a
// temp sibling and renamed into place, so a reader never observes a
// partially-written table and a failed run leaves any previous file intact.
func WriteFactsCSV(path string, snap *model.Snapshot, topN int) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	rows := make([][]string, 0, len(snap.Facts))
	for i := range snap.Facts {
		rows = append(rows, record(&snap.Facts[i], topN))
	}
	return writeAtomic(path, header(topN), rows)
}

// WritePlaylistsCSV writes the playlist dimension backing the fact table's
// association columns, with the same atomic rename semantics.
func WritePlaylistsCSV(path string, snap *model.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	rows := make([][]string, 0, len(snap.Playlists))
	for _, p := range snap.Playlists {
		rows = append(rows, playlistRecord(p))
	}
	return writeAtomic(path, playlistHeader(), rows)
}

// writeAtomic writes a CSV to a temp sibling of path and renames it into
// place.
func writeAtomic(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish output: %w", err)
	}
	return nil
}

func header(topN int) []string {
	cols := []string{
		"event_id", "source", "played_at",
		"track_id", "track_provenance", "artist_id", "artist_provenance",
		"album_id", "album_provenance",
		"track_name", "artist_name", "album_name",
		"duration_played_ms",
		"popularity", "explicit", "track_uri",
		"platform", "country", "shuffle", "skipped", "reason_start", "reason_end",
		"prev_track_id", "prev_artist_id", "gap_minutes",
		"is_new_session", "session_number", "is_repeat", "repeat_sequence",
	}
	for i := 1; i <= topN; i++ {
		cols = append(cols, "playlist_"+strconv.Itoa(i))
	}
	return append(cols, "playlist_count")
}

func record(f *model.FactRow, topN int) []string {
	rec := []string{
		f.EventID,
		string(f.Source),
		f.PlayedAt.UTC().Format(playedAtLayout),
		f.TrackIdentity.ID, string(f.TrackIdentity.Provenance),
		f.ArtistIdentity.ID, string(f.ArtistIdentity.Provenance),
		f.AlbumIdentity.ID, string(f.AlbumIdentity.Provenance),
		f.TrackName, f.ArtistName, f.AlbumName,
		strconv.FormatInt(f.DurationPlayedMS, 10),
		optInt(f.Popularity), optBool(f.Explicit), optStr(f.TrackURI),
		optStr(f.Platform), optStr(f.Country), optBool(f.Shuffle), optBool(f.Skipped),
		optStr(f.ReasonStart), optStr(f.ReasonEnd),
		f.PrevTrackID, f.PrevArtistID, optFloat(f.GapMinutes),
		strconv.FormatBool(f.IsNewSession),
		strconv.Itoa(f.SessionNumber),
		strconv.FormatBool(f.IsRepeat),
		strconv.Itoa(f.RepeatSequence),
	}
	for i := 0; i < topN; i++ {
		if i < len(f.Playlists) {
			rec = append(rec, f.Playlists[i])
		} else {
			rec = append(rec, "")
		}
	}
	return append(rec, strconv.Itoa(f.PlaylistCount))
}

func playlistHeader() []string {
	return []string{
		"playlist_id", "playlist_name", "owner_id",
		"is_owner", "is_public", "is_collaborative",
		"total_tracks", "extracted_at",
	}
}

func playlistRecord(p model.Playlist) []string {
	extractedAt := ""
	if !p.ExtractedAt.IsZero() {
		extractedAt = p.ExtractedAt.UTC().Format(playedAtLayout)
	}
	return []string{
		p.PlaylistID, p.PlaylistName, p.OwnerID,
		strconv.FormatBool(p.IsOwner),
		strconv.FormatBool(p.IsPublic),
		strconv.FormatBool(p.Collaborative),
		strconv.Itoa(p.TotalTracks),
		extractedAt,
	}
}

// Nil-aware column formatters: nil means the field does not apply to the
// row's source and is emitted as an empty column, never a fake zero.

func optStr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
