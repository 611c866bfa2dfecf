// Package aggregate accumulates per-artist genre/style metadata across
// catalog records.
//
// The merge rule (set union for genres/styles/years, sum for release
// counts, first-seen name retained) is commutative and associative: the
// final result is identical regardless of batch size, batch order, or
// whether merging happens incrementally or all at once. The whole
// checkpoint/resume design depends on that property, so the aggregate
// deliberately contains no order-sensitive or floating-point fields.
package aggregate

import (
	"slices"
)

// ArtistAggregate is the serialized form of one artist's aggregate, with
// set fields sorted for reproducible output.
type ArtistAggregate struct {
	SourceID     string   `json:"sourceId"`
	Name         string   `json:"name"`
	Genres       []string `json:"genres"`
	Styles       []string `json:"styles"`
	ReleaseYears []int    `json:"releaseYears"`
	ReleaseCount int64    `json:"releaseCount"`
}

// artistAgg is the in-memory accumulating form.
type artistAgg struct {
	id     string
	name   string // first-seen value retained
	genres map[string]struct{}
	styles map[string]struct{}
	years  map[int]struct{}
	count  int64
}

// Aggregator owns the artist-id → aggregate map for one batch run. Each
// concurrent batch run owns its own instance; there is no shared state.
type Aggregator struct {
	artists map[string]*artistAgg
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{artists: make(map[string]*artistAgg)}
}

// Len returns the number of distinct artists observed.
func (a *Aggregator) Len() int {
	return len(a.artists)
}

func (a *Aggregator) get(id, name string) *artistAgg {
	agg, ok := a.artists[id]
	if !ok {
		agg = &artistAgg{
			id:     id,
			name:   name,
			genres: make(map[string]struct{}),
			styles: make(map[string]struct{}),
			years:  make(map[int]struct{}),
		}
		a.artists[id] = agg
	}
	return agg
}

// Observe records one release credit for the artist: genres and styles are
// unioned into the existing sets, the year added when non-zero, and the
// release count incremented by one.
func (a *Aggregator) Observe(id, name string, genres, styles []string, year int) {
	agg := a.get(id, name)
	for _, g := range genres {
		agg.genres[g] = struct{}{}
	}
	for _, s := range styles {
		agg.styles[s] = struct{}{}
	}
	if year != 0 {
		agg.years[year] = struct{}{}
	}
	agg.count++
}

// AddAggregate folds a serialized aggregate back in, using the same
// union/sum rule as Observe. Used when merging persisted batch artifacts.
func (a *Aggregator) AddAggregate(rec ArtistAggregate) {
	agg := a.get(rec.SourceID, rec.Name)
	for _, g := range rec.Genres {
		agg.genres[g] = struct{}{}
	}
	for _, s := range rec.Styles {
		agg.styles[s] = struct{}{}
	}
	for _, y := range rec.ReleaseYears {
		agg.years[y] = struct{}{}
	}
	agg.count += rec.ReleaseCount
}

// Merge unions every aggregate from other into a, keyed by artist id.
// other is not modified.
func (a *Aggregator) Merge(other *Aggregator) {
	for id, o := range other.artists {
		agg := a.get(id, o.name)
		for g := range o.genres {
			agg.genres[g] = struct{}{}
		}
		for s := range o.styles {
			agg.styles[s] = struct{}{}
		}
		for y := range o.years {
			agg.years[y] = struct{}{}
		}
		agg.count += o.count
	}
}

// Snapshot returns all aggregates sorted by source id, with sorted set
// fields. Sorting is mandatory so reruns serialize byte-for-byte
// identically.
func (a *Aggregator) Snapshot() []ArtistAggregate {
	out := make([]ArtistAggregate, 0, len(a.artists))
	for _, agg := range a.artists {
		out = append(out, ArtistAggregate{
			SourceID:     agg.id,
			Name:         agg.name,
			Genres:       sortedKeys(agg.genres),
			Styles:       sortedKeys(agg.styles),
			ReleaseYears: sortedInts(agg.years),
			ReleaseCount: agg.count,
		})
	}
	slices.SortFunc(out, func(x, y ArtistAggregate) int {
		switch {
		case x.SourceID < y.SourceID:
			return -1
		case x.SourceID > y.SourceID:
			return 1
		default:
			return 0
		}
	})
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
