package ontology

import (
	"slices"

	"github.com/mkessy/genre-db/pkg/canonical"
)

// DefaultTopCountries is how many country buckets Enrich reports when the
// caller does not say otherwise.
const DefaultTopCountries = 5

// CountryCount is one country bucket in an enrichment result.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// Enrichment is the derived association data for one taxonomy entry.
type Enrichment struct {
	Genre        string         `json:"genre"`
	ArtistCount  int            `json:"artistCount"`
	TopCountries []CountryCount `json:"topCountries"`
	MatchedTags  []string       `json:"matchedTags"`
}

// Enrich looks up the entry's canonical name and every alias, unions the
// resulting artist lists deduplicated by artist identity (two lookups may
// return the same artist record for different aliases), and derives the
// associated artist count, the top-N countries by frequency (ties broken
// lexicographically), and the original spellings of the tags that
// matched.
func (idx *Index) Enrich(entry TagEntry, topN int) Enrichment {
	if topN <= 0 {
		topN = DefaultTopCountries
	}

	seen := make(map[*canonical.Artist]struct{})
	countries := make(map[string]int)
	matchedTags := make(map[string]struct{})

	terms := make([]string, 0, 1+len(entry.Aliases))
	terms = append(terms, entry.Canonical)
	terms = append(terms, entry.Aliases...)

	for _, term := range terms {
		p := idx.lookup(term)
		if p == nil {
			continue
		}
		for orig := range p.originals {
			matchedTags[orig] = struct{}{}
		}
		for _, ref := range p.artists {
			if _, dup := seen[ref.artist]; dup {
				continue
			}
			seen[ref.artist] = struct{}{}
			if ref.artist.Country != "" {
				countries[ref.artist.Country]++
			}
		}
	}

	buckets := make([]CountryCount, 0, len(countries))
	for country, count := range countries {
		buckets = append(buckets, CountryCount{Country: country, Count: count})
	}
	slices.SortFunc(buckets, func(a, b CountryCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		switch {
		case a.Country < b.Country:
			return -1
		case a.Country > b.Country:
			return 1
		default:
			return 0
		}
	})
	if len(buckets) > topN {
		buckets = buckets[:topN]
	}

	tags := make([]string, 0, len(matchedTags))
	for tag := range matchedTags {
		tags = append(tags, tag)
	}
	slices.Sort(tags)

	return Enrichment{
		Genre:        entry.Canonical,
		ArtistCount:  len(seen),
		TopCountries: buckets,
		MatchedTags:  tags,
	}
}
