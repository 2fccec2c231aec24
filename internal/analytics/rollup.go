// Package analytics derives the aggregation models consumed by dashboards:
// hourly listening patterns, daily rollups and per-day top tracks. All of it
// is declarative aggregation over the fact output.
package analytics

import (
	"sort"
	"time"

	"github.com/okian/relisten/internal/domain/model"
)

// dateLayout formats rollup calendar dates.
const dateLayout = "2006-01-02"

// HourlyPattern aggregates plays by hour of day across the whole stream.
type HourlyPattern struct {
	HourOfDay    int
	TotalPlays   int
	UniqueTracks int
}

// DailyRollup aggregates one calendar date.
type DailyRollup struct {
	Date          string
	TotalPlays    int
	UniqueTracks  int
	UniqueArtists int
	TotalMinutes  float64
	Sessions      int
}

// TopTrack is one ranked row of the per-day top-track model.
type TopTrack struct {
	Date       string
	TrackID    string
	TrackName  string
	ArtistName string
	PlayCount  int
	Rank       int
}

// HourlyPatterns computes play counts and distinct tracks per hour of day
// in the given location. Hours with no plays are omitted.
func HourlyPatterns(facts []model.FactRow, loc *time.Location) []HourlyPattern {
	plays := make(map[int]int)
	tracks := make(map[int]map[string]struct{})

	for _, f := range facts {
		hour := f.PlayedAt.In(loc).Hour()
		plays[hour]++
		if tracks[hour] == nil {
			tracks[hour] = make(map[string]struct{})
		}
		tracks[hour][f.TrackIdentity.ID] = struct{}{}
	}

	out := make([]HourlyPattern, 0, len(plays))
	for hour, n := range plays {
		out = append(out, HourlyPattern{
			HourOfDay:    hour,
			TotalPlays:   n,
			UniqueTracks: len(tracks[hour]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HourOfDay < out[j].HourOfDay })
	return out
}

// DailyRollups computes per-date play, track, artist, minutes-listened and
// session counts. A session is attributed to the date of its first event.
func DailyRollups(facts []model.FactRow, loc *time.Location) []DailyRollup {
	type acc struct {
		plays    int
		tracks   map[string]struct{}
		artists  map[string]struct{}
		ms       int64
		sessions int
	}
	byDate := make(map[string]*acc)

	for _, f := range facts {
		date := f.PlayedAt.In(loc).Format(dateLayout)
		a := byDate[date]
		if a == nil {
			a = &acc{tracks: map[string]struct{}{}, artists: map[string]struct{}{}}
			byDate[date] = a
		}
		a.plays++
		a.tracks[f.TrackIdentity.ID] = struct{}{}
		a.artists[f.ArtistIdentity.ID] = struct{}{}
		a.ms += f.DurationPlayedMS
		if f.IsNewSession {
			a.sessions++
		}
	}

	out := make([]DailyRollup, 0, len(byDate))
	for date, a := range byDate {
		out = append(out, DailyRollup{
			Date:          date,
			TotalPlays:    a.plays,
			UniqueTracks:  len(a.tracks),
			UniqueArtists: len(a.artists),
			TotalMinutes:  float64(a.ms) / 60000,
			Sessions:      a.sessions,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// TopTracksDaily ranks tracks by play count within each date, keeping the
// top K. Ties break by track id ascending for deterministic output.
func TopTracksDaily(facts []model.FactRow, loc *time.Location, topK int) []TopTrack {
	if topK < 1 {
		return nil
	}

	type trackAgg struct {
		trackID    string
		trackName  string
		artistName string
		plays      int
	}
	byDate := make(map[string]map[string]*trackAgg)

	for _, f := range facts {
		date := f.PlayedAt.In(loc).Format(dateLayout)
		if byDate[date] == nil {
			byDate[date] = make(map[string]*trackAgg)
		}
		agg := byDate[date][f.TrackIdentity.ID]
		if agg == nil {
			agg = &trackAgg{
				trackID:    f.TrackIdentity.ID,
				trackName:  f.TrackName,
				artistName: f.ArtistName,
			}
			byDate[date][f.TrackIdentity.ID] = agg
		}
		agg.plays++
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var out []TopTrack
	for _, date := range dates {
		aggs := make([]*trackAgg, 0, len(byDate[date]))
		for _, a := range byDate[date] {
			aggs = append(aggs, a)
		}
		sort.Slice(aggs, func(i, j int) bool {
			if aggs[i].plays != aggs[j].plays {
				return aggs[i].plays > aggs[j].plays
			}
			return aggs[i].trackID < aggs[j].trackID
		})
		k := topK
		if len(aggs) < k {
			k = len(aggs)
		}
		for i := 0; i < k; i++ {
			out = append(out, TopTrack{
				Date:       date,
				TrackID:    aggs[i].trackID,
				TrackName:  aggs[i].trackName,
				ArtistName: aggs[i].artistName,
				PlayCount:  aggs[i].plays,
				Rank:       i + 1,
			})
		}
	}
	return out
}
