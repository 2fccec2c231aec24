package ingest

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/relisten/internal/domain/model"
)

// exportRecord mirrors one entry of the extended streaming history export.
type exportRecord struct {
	TS                string `json:"ts"`
	Platform          string `json:"platform"`
	MSPlayed          int64  `json:"ms_played"`
	ConnCountry       string `json:"conn_country"`
	TrackName         string `json:"master_metadata_track_name"`
	ArtistName        string `json:"master_metadata_album_artist_name"`
	AlbumName         string `json:"master_metadata_album_album_name"`
	SpotifyTrackURI   string `json:"spotify_track_uri"`
	EpisodeName       string `json:"episode_name"`
	SpotifyEpisodeURI string `json:"spotify_episode_uri"`
	AudiobookURI      string `json:"audiobook_uri"`
	ReasonStart       string `json:"reason_start"`
	ReasonEnd         string `json:"reason_end"`
	Shuffle           bool   `json:"shuffle"`
	Skipped           bool   `json:"skipped"`
	Offline           bool   `json:"offline"`
	IncognitoMode     bool   `json:"incognito_mode"`
}

// readExportJSON reads one extended-history file. Podcast episodes and
// audiobook chapters are not part of the music fact stream and are skipped
// here; rows with a missing or malformed track reference are passed through
// so the unifier can exclude and count them.
func (r *Reader) readExportJSON(path string, loadedAt time.Time) ([]model.ExportPlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var records []exportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	plays := make([]model.ExportPlay, 0, len(records))
	for _, rec := range records {
		if rec.SpotifyTrackURI == "" && (rec.SpotifyEpisodeURI != "" || rec.AudiobookURI != "") {
			continue
		}
		plays = append(plays, model.ExportPlay{
			PlayedAt:    parseExportTS(rec.TS),
			Platform:    rec.Platform,
			MSPlayed:    rec.MSPlayed,
			Country:     rec.ConnCountry,
			TrackName:   rec.TrackName,
			ArtistName:  rec.ArtistName,
			AlbumName:   rec.AlbumName,
			TrackURI:    rec.SpotifyTrackURI,
			ReasonStart: rec.ReasonStart,
			ReasonEnd:   rec.ReasonEnd,
			Shuffle:     rec.Shuffle,
			Skipped:     rec.Skipped,
			Offline:     rec.Offline,
			Incognito:   rec.IncognitoMode,
			LoadedAt:    loadedAt,
		})
	}
	return plays, nil
}

// parseExportTS parses the export's UTC timestamp; a zero return marks a
// null timestamp for downstream exclusion.
func parseExportTS(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
