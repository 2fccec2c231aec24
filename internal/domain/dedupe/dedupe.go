// Package dedupe collapses duplicate ingestions of the same logical record.
//
// Records are re-ingested rather than updated in place, so a raw batch may
// carry the same natural key several times under different load timestamps.
// Latest returns exactly one record per natural key: the most recently
// loaded version.
package dedupe

import "time"

// Record is any raw row the deduplicator can collapse.
type Record interface {
	// NaturalKey identifies the logical record across ingestion loads.
	NaturalKey() string
	// IngestedAt is the load timestamp; the latest load wins.
	IngestedAt() time.Time
}

// Latest collapses records to the most recently ingested version per natural
// key and reports how many duplicates were dropped.
//
// The output preserves the stable input order of each key's first
// occurrence. Ties in ingestion timestamp keep the earlier-encountered
// record, so the transform is deterministic for identical input.
func Latest[T Record](records []T) ([]T, int) {
	if len(records) == 0 {
		return nil, 0
	}

	index := make(map[string]int, len(records))
	kept := make([]T, 0, len(records))
	dropped := 0

	for _, r := range records {
		key := r.NaturalKey()
		at, seen := index[key]
		if !seen {
			index[key] = len(kept)
			kept = append(kept, r)
			continue
		}
		dropped++
		// Strictly later loads replace; equal timestamps keep the first.
		if r.IngestedAt().After(kept[at].IngestedAt()) {
			kept[at] = r
		}
	}

	return kept, dropped
}
