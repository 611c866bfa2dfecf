// Package canonical loads the independently-sourced artist dataset that
// the merger enriches and the ontology enricher indexes.
//
// The dataset is keyed by display name; its identifier space is disjoint
// from the catalog dump's, which is why the merger joins by normalized
// name instead of by id.
package canonical

import (
	"encoding/json"
	"fmt"
	"os"
)

// Artist is one canonical artist record. The Discogs* and ReleaseYears
// fields are empty on load and attached by the merger.
type Artist struct {
	Country string   `json:"country,omitempty"`
	Tags    []string `json:"tags,omitempty"`

	DiscogsGenres []string `json:"discogsGenres,omitempty"`
	DiscogsStyles []string `json:"discogsStyles,omitempty"`
	ReleaseYears  []int    `json:"releaseYears,omitempty"`
}

// Load reads a canonical dataset file: a JSON object mapping display name
// to record. Invalid JSON is a setup failure, reported before any batch or
// merge work starts.
func Load(path string) (map[string]*Artist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read canonical dataset: %w", err)
	}
	artists := make(map[string]*Artist)
	if err := json.Unmarshal(data, &artists); err != nil {
		return nil, fmt.Errorf("parse canonical dataset %s: %w", path, err)
	}
	return artists, nil
}
