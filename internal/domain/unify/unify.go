// Package unify merges the two provenance-tagged play streams into one
// uniform event schema with disjoint id spaces.
package unify

import (
	"crypto/sha256"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/relisten/internal/domain/identity"
	"github.com/okian/relisten/internal/domain/model"
)

// trackURIPrefix is the reference format a historical row must carry to be
// admitted to the unified stream.
const trackURIPrefix = "spotify:track:"

// Result is the unified stream plus the exclusion counters required by the
// observability summary. Excluded rows are never fabricated into events.
type Result struct {
	Events                []model.UnifiedEvent
	ExcludedUnparseable   int
	ExcludedNullTimestamp int
}

// Merge maps deduplicated live and historical plays onto the UnifiedEvent
// schema. The mapping is total: fields absent from a source stay nil.
// Historical rows whose track reference cannot be parsed, and rows of either
// source with a null timestamp, are excluded and counted.
func Merge(live []model.LivePlay, hist []model.ExportPlay, resolver *identity.Resolver) Result {
	var res Result
	res.Events = make([]model.UnifiedEvent, 0, len(live)+len(hist))

	for _, p := range live {
		if p.PlayedAt.IsZero() {
			res.ExcludedNullTimestamp++
			continue
		}
		pop := p.Popularity
		expl := p.Explicit
		uri := p.TrackURI
		res.Events = append(res.Events, model.UnifiedEvent{
			EventID:          EventID(model.SourceLive, p.NaturalKey()),
			Source:           model.SourceLive,
			PlayedAt:         p.PlayedAt.UTC(),
			TrackIdentity:    verifiedOrResolved(resolver, model.EntityTrack, p.TrackID, p.TrackName),
			ArtistIdentity:   verifiedOrResolved(resolver, model.EntityArtist, p.ArtistID, p.ArtistName),
			AlbumIdentity:    verifiedOrResolved(resolver, model.EntityAlbum, p.AlbumID, p.AlbumName),
			TrackName:        p.TrackName,
			ArtistName:       p.ArtistName,
			AlbumName:        p.AlbumName,
			DurationPlayedMS: p.DurationMS,
			Popularity:       &pop,
			Explicit:         &expl,
			TrackURI:         &uri,
			NaturalKey:       p.NaturalKey(),
		})
	}

	for _, p := range hist {
		trackID, ok := ParseTrackURI(p.TrackURI)
		if !ok {
			res.ExcludedUnparseable++
			continue
		}
		if p.PlayedAt.IsZero() {
			res.ExcludedNullTimestamp++
			continue
		}
		platform := p.Platform
		country := p.Country
		shuffle := p.Shuffle
		skipped := p.Skipped
		reasonStart := p.ReasonStart
		reasonEnd := p.ReasonEnd
		res.Events = append(res.Events, model.UnifiedEvent{
			EventID:          EventID(model.SourceHistorical, p.NaturalKey()),
			Source:           model.SourceHistorical,
			PlayedAt:         p.PlayedAt.UTC(),
			TrackIdentity:    model.Identity{Type: model.EntityTrack, ID: trackID, Provenance: model.ProvenanceVerified},
			ArtistIdentity:   resolver.Resolve(model.EntityArtist, p.ArtistName),
			AlbumIdentity:    resolver.Resolve(model.EntityAlbum, p.AlbumName),
			TrackName:        p.TrackName,
			ArtistName:       p.ArtistName,
			AlbumName:        p.AlbumName,
			DurationPlayedMS: p.MSPlayed,
			Platform:         &platform,
			Country:          &country,
			Shuffle:          &shuffle,
			Skipped:          &skipped,
			ReasonStart:      &reasonStart,
			ReasonEnd:        &reasonEnd,
			NaturalKey:       p.NaturalKey(),
		})
	}

	return res
}

// verifiedOrResolved uses the row's own verified id when present and falls
// back to resolver lookup (verified elsewhere in the batch, else derived).
func verifiedOrResolved(resolver *identity.Resolver, t model.EntityType, id, name string) model.Identity {
	if id != "" {
		return model.Identity{Type: t, ID: id, Provenance: model.ProvenanceVerified}
	}
	return resolver.Resolve(t, name)
}

// ParseTrackURI extracts the track identifier from a canonical track
// reference. Returns false for references that do not match the expected
// format; callers must exclude such rows, not fabricate an identity.
func ParseTrackURI(uri string) (string, bool) {
	if !strings.HasPrefix(uri, trackURIPrefix) {
		return "", false
	}
	id := uri[len(trackURIPrefix):]
	if id == "" || strings.ContainsAny(id, ": \t") {
		return "", false
	}
	return id, true
}

// EventID builds a deterministic event identifier. The raw row's natural key
// is hashed into a UUID and tagged with the source, so live and historical
// ids can never collide and re-runs over identical input produce identical
// ids.
func EventID(source model.Source, naturalKey string) string {
	sum := sha256.Sum256([]byte(string(source) + ":" + naturalKey))
	id, err := uuid.FromBytes(sum[:16])
	if err != nil {
		// Unreachable with a 16-byte input; keep the event rather than drop it.
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(naturalKey))
	}
	id[6] = (id[6] & 0x0f) | 0x50
	id[8] = (id[8] & 0x3f) | 0x80
	return string(source) + ":" + id.String()
}
