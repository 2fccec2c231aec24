// Package model contains domain models passed between pipeline stages.
package model

import "time"

// Source identifies which feed produced a play event.
type Source string

// Recognized event sources.
const (
	SourceLive       Source = "live"
	SourceHistorical Source = "historical"
)

// EntityType distinguishes the three dimension namespaces.
type EntityType string

// Recognized entity types.
const (
	EntityTrack  EntityType = "track"
	EntityArtist EntityType = "artist"
	EntityAlbum  EntityType = "album"
)

// Provenance records how a canonical identifier was obtained.
type Provenance string

// Recognized identity provenances.
const (
	ProvenanceVerified Provenance = "verified"
	ProvenanceDerived  Provenance = "derived"
)

// Identity is a resolved canonical identifier for a track, artist or album.
type Identity struct {
	Type       EntityType
	ID         string
	Provenance Provenance
}

// IsZero reports whether no identity could be resolved at all.
func (i Identity) IsZero() bool {
	return i.ID == ""
}

// LivePlay is one row of the recent-activity feed as handed over by the
// extractor. Natural key: (TrackID, PlayedAt).
type LivePlay struct {
	PlayedAt         time.Time
	TrackID          string
	TrackName        string
	ArtistID         string
	ArtistName       string
	AlbumID          string
	AlbumName        string
	AlbumReleaseDate string
	DurationMS       int64
	Popularity       int
	Explicit         bool
	TrackURI         string
	LoadedAt         time.Time
}

// NaturalKey returns the dedupe key for a live play.
func (p LivePlay) NaturalKey() string {
	return p.TrackID + "|" + p.PlayedAt.UTC().Format(time.RFC3339)
}

// IngestedAt returns the load timestamp used for latest-wins dedupe.
func (p LivePlay) IngestedAt() time.Time { return p.LoadedAt }

// ExportPlay is one row of the bulk historical export.
// Natural key: (TrackURI, PlayedAt). A zero PlayedAt means the source
// timestamp was null; such rows cannot be sequenced and are excluded.
type ExportPlay struct {
	PlayedAt    time.Time
	Platform    string
	MSPlayed    int64
	Country     string
	TrackName   string
	ArtistName  string
	AlbumName   string
	TrackURI    string
	ReasonStart string
	ReasonEnd   string
	Shuffle     bool
	Skipped     bool
	Offline     bool
	Incognito   bool
	LoadedAt    time.Time
}

// NaturalKey returns the dedupe key for an export play.
func (p ExportPlay) NaturalKey() string {
	return p.TrackURI + "|" + p.PlayedAt.UTC().Format(time.RFC3339)
}

// IngestedAt returns the load timestamp used for latest-wins dedupe.
func (p ExportPlay) IngestedAt() time.Time { return p.LoadedAt }

// Playlist is a playlist dimension record. Natural key: PlaylistID.
type Playlist struct {
	PlaylistID    string
	PlaylistName  string
	OwnerID       string
	IsOwner       bool
	IsPublic      bool
	Collaborative bool
	TotalTracks   int
	ExtractedAt   time.Time
	LoadedAt      time.Time
}

// NaturalKey returns the dedupe key for a playlist record.
func (p Playlist) NaturalKey() string { return p.PlaylistID }

// IngestedAt returns the load timestamp used for latest-wins dedupe.
func (p Playlist) IngestedAt() time.Time { return p.LoadedAt }

// PlaylistTrack is a playlist-track membership link.
// Natural key: (PlaylistID, TrackID).
type PlaylistTrack struct {
	PlaylistID string
	TrackID    string
	AddedAt    time.Time
	AddedBy    string
	Position   int
	LoadedAt   time.Time
}

// NaturalKey returns the dedupe key for a membership link.
func (p PlaylistTrack) NaturalKey() string { return p.PlaylistID + "|" + p.TrackID }

// IngestedAt returns the load timestamp used for latest-wins dedupe.
func (p PlaylistTrack) IngestedAt() time.Time { return p.LoadedAt }

// UnifiedEvent is a play event after source union: both feeds mapped onto one
// schema with a provenance tag. Fields foreign to a given source stay nil
// rather than defaulting to a misleading zero.
type UnifiedEvent struct {
	EventID          string
	Source           Source
	PlayedAt         time.Time
	TrackIdentity    Identity
	ArtistIdentity   Identity
	AlbumIdentity    Identity
	TrackName        string
	ArtistName       string
	AlbumName        string
	DurationPlayedMS int64

	// Live-feed context, nil for historical events.
	Popularity *int
	Explicit   *bool
	TrackURI   *string

	// Historical-export context, nil for live events.
	Platform    *string
	Country     *string
	Shuffle     *bool
	Skipped     *bool
	ReasonStart *string
	ReasonEnd   *string

	// naturalKey of the originating raw row; secondary sort key so ordering
	// is total even when timestamps collide.
	NaturalKey string
}

// PlaylistAssociation links an event's track to a playlist that currently
// contains it. Rank is 1-based, ordered by membership recency.
type PlaylistAssociation struct {
	PlaylistID string
	Rank       int
}

// SequencedEvent extends UnifiedEvent with session and repeat semantics
// derived from the single ordered pass.
type SequencedEvent struct {
	UnifiedEvent

	PrevTrackID  string
	PrevArtistID string
	// GapMinutes is nil for the first event of the stream.
	GapMinutes     *float64
	IsNewSession   bool
	SessionNumber  int
	IsRepeat       bool
	RepeatSequence int
}

// FactRow is the final fact record consumed by downstream aggregations.
// Playlists is fixed-width: always TopN entries, empty string meaning null.
type FactRow struct {
	SequencedEvent

	Playlists     []string
	PlaylistCount int
}

// Summary is the per-run observability report. All data-quality conditions
// are counted here instead of failing the run.
type Summary struct {
	LiveInput             int
	HistoricalInput       int
	PlaylistInput         int
	MembershipInput       int
	DedupedOut            int
	ExcludedUnparseable   int
	ExcludedNullTimestamp int
	ResolutionFailed      int
	ResolutionConflicts   int
	FactRows              int
}

// Snapshot is one immutable engine output. A run either publishes a complete
// snapshot or leaves the previous one authoritative.
type Snapshot struct {
	RunID   string
	BuiltAt time.Time
	Facts   []FactRow
	// Playlists is the deduplicated playlist dimension backing the fact
	// rows' association columns.
	Playlists []Playlist
	Summary   Summary
}
