// Package merge folds persisted batch artifacts into one global aggregate
// map and cross-references it against the canonical artist dataset by
// normalized name.
//
// The two datasets have disjoint identifier spaces, so normalized display
// name is the only available join key. The join is inherently approximate;
// the observed match rate is a first-class output so downstream consumers
// can judge data quality instead of assuming exactness.
package merge

import (
	"context"
	"fmt"
	"time"

	"github.com/mkessy/genre-db/internal/logctx"
	"github.com/mkessy/genre-db/pkg/aggregate"
	"github.com/mkessy/genre-db/pkg/batch"
	"github.com/mkessy/genre-db/pkg/canonical"
	"github.com/mkessy/genre-db/pkg/logging"
	"github.com/mkessy/genre-db/pkg/normalize"
)

// LoadAll reads every persisted batch artifact in ascending batch-number
// order and folds them together under the aggregator's merge rule,
// producing one global aggregate keyed by source artist id. Returns the
// aggregator and the number of artifacts merged.
func LoadAll(ctx context.Context, batchDir string) (*aggregate.Aggregator, int, error) {
	log := logctx.FromContext(ctx)
	start := time.Now()

	numbers, err := batch.ListCompletedBatches(batchDir)
	if err != nil {
		return nil, 0, err
	}
	if len(numbers) == 0 {
		return nil, 0, fmt.Errorf("no batch artifacts found in %s", batchDir)
	}

	agg := aggregate.New()
	for _, n := range numbers {
		art, err := batch.ReadArtifact(batch.ArtifactPath(batchDir, n))
		if err != nil {
			return nil, 0, err
		}
		for _, rec := range art.Artists {
			agg.AddAggregate(rec)
		}
	}

	logging.PhaseComplete(log, "load-batches", time.Since(start)).
		Int("artifacts", len(numbers)).
		Int("artists", agg.Len()).
		Msg("batch artifacts merged")

	return agg, len(numbers), nil
}

// MatchToCanonical joins the aggregate map onto the canonical dataset by
// normalized name and attaches the matched genre/style/year sets (sorted)
// to each hit. Distinct source names that normalize identically are merged
// together first, since they are assumed to denote the same real-world
// artist. Returns matched and total canonical record counts.
func MatchToCanonical(canon map[string]*canonical.Artist, aggs *aggregate.Aggregator) (matched, total int) {
	// Re-key the aggregates by normalized name, reusing the aggregator's
	// union rule to resolve collisions.
	byName := aggregate.New()
	for _, rec := range aggs.Snapshot() {
		rec.SourceID = normalize.NameKey(rec.Name)
		if rec.SourceID == "" {
			continue
		}
		byName.AddAggregate(rec)
	}
	lookup := make(map[string]aggregate.ArtistAggregate, byName.Len())
	for _, rec := range byName.Snapshot() {
		lookup[rec.SourceID] = rec
	}

	for name, artist := range canon {
		total++
		rec, ok := lookup[normalize.NameKey(name)]
		if !ok {
			continue
		}
		matched++
		artist.DiscogsGenres = rec.Genres
		artist.DiscogsStyles = rec.Styles
		artist.ReleaseYears = rec.ReleaseYears
	}
	return matched, total
}
