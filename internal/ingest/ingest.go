// Package ingest reads the input snapshot files handed over by the
// extraction collaborators: live-feed CSV batches, playlist CSV batches,
// and the one-time extended streaming history JSON export.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/okian/relisten/internal/domain/model"
	"github.com/okian/relisten/pkg/logger"
)

// Input file naming conventions, matching the extractor's output.
const (
	livePattern           = "spotify_tracks_*.csv"
	playlistPattern       = "spotify_playlists_*.csv"
	playlistTracksPattern = "spotify_playlist_tracks_*.csv"
	exportPattern         = "Streaming_History_Audio_*.json"

	// filenameStampLayout is the trailing timestamp in extractor CSV names,
	// e.g. spotify_tracks_20240115_100000.csv.
	filenameStampLayout = "20060102_150405"
)

// Batch is one immutable input snapshot: every raw record the engine
// reconciles in a run.
type Batch struct {
	LivePlays      []model.LivePlay
	ExportPlays    []model.ExportPlay
	Playlists      []model.Playlist
	PlaylistTracks []model.PlaylistTrack
}

// Reader loads a Batch from a snapshot directory.
type Reader struct {
	dir    string
	logger logger.Logger
}

// NewReader creates a Reader for the given snapshot directory.
func NewReader(dir string, opts ...Option) *Reader {
	r := &Reader{
		dir:    dir,
		logger: logger.Get().Named("ingest"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads every matching input file under the snapshot directory. All
// CSV batches are read, not just the latest: the deduplicator collapses
// records re-ingested across loads. A missing export directory or an absent
// file class is not an error; an unreadable file is.
func (r *Reader) Load(ctx context.Context) (*Batch, error) {
	b := &Batch{}

	liveFiles, err := r.glob(livePattern)
	if err != nil {
		return nil, err
	}
	for _, f := range liveFiles {
		plays, err := r.readLiveCSV(f, r.loadStamp(f))
		if err != nil {
			return nil, err
		}
		b.LivePlays = append(b.LivePlays, plays...)
	}

	playlistFiles, err := r.glob(playlistPattern)
	if err != nil {
		return nil, err
	}
	for _, f := range playlistFiles {
		playlists, err := r.readPlaylistCSV(f, r.loadStamp(f))
		if err != nil {
			return nil, err
		}
		b.Playlists = append(b.Playlists, playlists...)
	}

	linkFiles, err := r.glob(playlistTracksPattern)
	if err != nil {
		return nil, err
	}
	for _, f := range linkFiles {
		links, err := r.readPlaylistTrackCSV(f, r.loadStamp(f))
		if err != nil {
			return nil, err
		}
		b.PlaylistTracks = append(b.PlaylistTracks, links...)
	}

	exportFiles, err := r.glob(exportPattern)
	if err != nil {
		return nil, err
	}
	for _, f := range exportFiles {
		plays, err := r.readExportJSON(f, r.loadStamp(f))
		if err != nil {
			return nil, err
		}
		b.ExportPlays = append(b.ExportPlays, plays...)
	}

	r.logger.Info(ctx, "input snapshot loaded",
		logger.String("dir", r.dir),
		logger.Int("live_plays", len(b.LivePlays)),
		logger.Int("export_plays", len(b.ExportPlays)),
		logger.Int("playlists", len(b.Playlists)),
		logger.Int("playlist_tracks", len(b.PlaylistTracks)),
	)
	return b, nil
}

// glob lists matching files in deterministic (sorted) order.
func (r *Reader) glob(pattern string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(r.dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// loadStamp derives the ingestion timestamp for a file: the trailing
// timestamp the extractor embeds in CSV names, falling back to the file's
// modification time for names without one (the export JSONs).
func (r *Reader) loadStamp(path string) time.Time {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	if len(stem) > len(filenameStampLayout) {
		stamp := stem[len(stem)-len(filenameStampLayout):]
		if t, err := time.Parse(filenameStampLayout, stamp); err == nil {
			return t.UTC()
		}
	}
	if info, err := os.Stat(path); err == nil {
		return info.ModTime().UTC()
	}
	return time.Time{}
}
