package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okian/relisten/internal/domain/model"
)

// timeLayouts covers the timestamp formats the extractor emits: RFC3339
// with and without sub-second precision, plus the naive form pandas writes
// for extracted_at columns.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// row gives header-name access to one CSV record.
type row struct {
	index  map[string]int
	fields []string
}

func (r row) str(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

func (r row) integer(col string) int {
	v := strings.TrimSpace(r.str(col))
	if v == "" {
		return 0
	}
	// pandas serializes whole numbers in float form, e.g. "23.0".
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int(f)
	}
	return 0
}

func (r row) boolean(col string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(r.str(col)))
	return err == nil && b
}

func (r row) timestamp(col string) time.Time {
	v := strings.TrimSpace(r.str(col))
	if v == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// forEachRow streams the CSV at path, invoking fn with header-indexed rows.
func forEachRow(path string, fn func(row)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header %s: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		fn(row{index: index, fields: fields})
	}
}

// readLiveCSV reads one live-feed batch file; loadedAt tags every record
// with the batch's ingestion timestamp.
func (r *Reader) readLiveCSV(path string, loadedAt time.Time) ([]model.LivePlay, error) {
	var plays []model.LivePlay
	err := forEachRow(path, func(rec row) {
		plays = append(plays, model.LivePlay{
			PlayedAt:         rec.timestamp("played_at"),
			TrackID:          rec.str("track_id"),
			TrackName:        rec.str("track_name"),
			ArtistID:         rec.str("artist_id"),
			ArtistName:       rec.str("artist_name"),
			AlbumID:          rec.str("album_id"),
			AlbumName:        rec.str("album_name"),
			AlbumReleaseDate: rec.str("album_release_date"),
			DurationMS:       int64(rec.integer("duration_ms")),
			Popularity:       rec.integer("popularity"),
			Explicit:         rec.boolean("explicit"),
			TrackURI:         rec.str("track_uri"),
			LoadedAt:         loadedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return plays, nil
}

// readPlaylistCSV reads one playlist dimension batch file.
func (r *Reader) readPlaylistCSV(path string, loadedAt time.Time) ([]model.Playlist, error) {
	var playlists []model.Playlist
	err := forEachRow(path, func(rec row) {
		playlists = append(playlists, model.Playlist{
			PlaylistID:    rec.str("playlist_id"),
			PlaylistName:  rec.str("playlist_name"),
			OwnerID:       rec.str("owner_id"),
			IsOwner:       rec.boolean("is_owner"),
			IsPublic:      rec.boolean("is_public"),
			Collaborative: rec.boolean("is_collaborative"),
			TotalTracks:   rec.integer("total_tracks"),
			ExtractedAt:   rec.timestamp("extracted_at"),
			LoadedAt:      loadedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return playlists, nil
}

// readPlaylistTrackCSV reads one membership batch file.
func (r *Reader) readPlaylistTrackCSV(path string, loadedAt time.Time) ([]model.PlaylistTrack, error) {
	var links []model.PlaylistTrack
	err := forEachRow(path, func(rec row) {
		links = append(links, model.PlaylistTrack{
			PlaylistID: rec.str("playlist_id"),
			TrackID:    rec.str("track_id"),
			AddedAt:    rec.timestamp("added_at"),
			AddedBy:    rec.str("added_by"),
			Position:   rec.integer("position"),
			LoadedAt:   loadedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}
