// Package identity assigns canonical identifiers to tracks, artists and
// albums, preferring externally-verified identifiers over content-derived
// ones.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/okian/relisten/internal/domain/model"
)

// unknownName is the sentinel used for null or blank entity names, so all
// null-named entities of a type collapse to one derived identity.
const unknownName = "unknown"

// derivedPrefix keeps derived ids out of the verified-id namespace and out
// of each other's entity-type namespace.
var derivedPrefix = map[model.EntityType]string{
	model.EntityTrack:  "drv-track-",
	model.EntityArtist: "drv-artist-",
	model.EntityAlbum:  "drv-album-",
}

type verifiedEntry struct {
	id         string
	observedAt time.Time
}

// catalog holds all mutable observation state for one entity type: the
// verified entries and the conflict counter. Keeping the counter here, not
// in a map shared across types, is what makes per-type writes disjoint.
type catalog struct {
	entries   map[string]verifiedEntry
	conflicts int
}

// Resolver maps natural keys (normalized entity names) to canonical
// identifiers. It is rebuilt from scratch each run; nothing is cached
// across runs, so upstream corrections are always picked up.
//
// Observe is not safe for concurrent use within one entity type. Different
// entity types write disjoint catalogs (the catalogs map itself is never
// mutated after New), so one goroutine per type may observe concurrently.
type Resolver struct {
	catalogs map[model.EntityType]*catalog
	hashLen  int
}

// New creates a Resolver with the given options applied.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		catalogs: map[model.EntityType]*catalog{
			model.EntityTrack:  {entries: map[string]verifiedEntry{}},
			model.EntityArtist: {entries: map[string]verifiedEntry{}},
			model.EntityAlbum:  {entries: map[string]verifiedEntry{}},
		},
		hashLen: defaultHashLength,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Observe records a verified identifier for a natural key. When two distinct
// verified ids are observed for the same key, the most recently observed one
// wins and the disagreement is counted as a resolution conflict.
func (r *Resolver) Observe(t model.EntityType, name, id string, observedAt time.Time) {
	if id == "" {
		return
	}
	c, ok := r.catalogs[t]
	if !ok {
		return
	}
	key := Normalize(name)
	existing, ok := c.entries[key]
	if !ok {
		c.entries[key] = verifiedEntry{id: id, observedAt: observedAt}
		return
	}
	if existing.id != id {
		c.conflicts++
	}
	if observedAt.After(existing.observedAt) {
		c.entries[key] = verifiedEntry{id: id, observedAt: observedAt}
	}
}

// Resolve returns the canonical identity for a natural key: the verified id
// when one has been observed anywhere in the record set, otherwise a
// deterministic derived id hashed from the normalized name.
func (r *Resolver) Resolve(t model.EntityType, name string) model.Identity {
	key := Normalize(name)
	if c, ok := r.catalogs[t]; ok {
		if entry, ok := c.entries[key]; ok {
			return model.Identity{Type: t, ID: entry.id, Provenance: model.ProvenanceVerified}
		}
	}
	return model.Identity{Type: t, ID: r.derive(t, key), Provenance: model.ProvenanceDerived}
}

// Conflicts returns the total number of verified-id disagreements observed
// across all entity types.
func (r *Resolver) Conflicts() int {
	total := 0
	for _, c := range r.catalogs {
		total += c.conflicts
	}
	return total
}

// derive computes the content-derived identifier for a normalized key.
// Pure function of the key: no randomness, no current-time dependency.
func (r *Resolver) derive(t model.EntityType, normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return derivedPrefix[t] + hex.EncodeToString(sum[:])[:r.hashLen]
}

// Normalize trims and lowercases an entity name; blank names map to the
// "unknown" sentinel before hashing.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return unknownName
	}
	return n
}
