// Package ontology builds a normalized-tag inverted index over the
// canonical artist dataset and answers "which artists and countries are
// associated with genre X" in time proportional to the match set.
//
// The lookup structure is a minimal perfect hash over the normalized tag
// set with stored-key verification, built once per run and never
// persisted.
package ontology

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"slices"

	"github.com/relab/bbhash"

	"github.com/mkessy/genre-db/pkg/canonical"
	"github.com/mkessy/genre-db/pkg/normalize"
)

// TagEntry is one genre taxonomy entry: a canonical name plus its known
// alias spellings.
type TagEntry struct {
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases"`
}

// LoadTaxonomy reads the genre taxonomy file: a JSON object mapping
// canonical genre name to alias list. Entries are returned sorted by
// canonical name.
func LoadTaxonomy(path string) ([]TagEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	byName := make(map[string][]string)
	if err := json.Unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("parse taxonomy %s: %w", path, err)
	}

	entries := make([]TagEntry, 0, len(byName))
	for name, aliases := range byName {
		entries = append(entries, TagEntry{Canonical: name, Aliases: aliases})
	}
	slices.SortFunc(entries, func(a, b TagEntry) int {
		switch {
		case a.Canonical < b.Canonical:
			return -1
		case a.Canonical > b.Canonical:
			return 1
		default:
			return 0
		}
	})
	return entries, nil
}

// artistRef is one artist carrying a tag, keeping the display name next
// to the record pointer.
type artistRef struct {
	name   string
	artist *canonical.Artist
}

// posting is the index entry for one normalized tag. The original
// spellings are kept because normalization is lossy and downstream
// consumers display the tag as originally written.
type posting struct {
	key       string // normalized tag, checked on lookup
	artists   []artistRef
	originals map[string]struct{}
}

// Index is the normalized-tag → artists inverted index.
type Index struct {
	mph   *bbhash.BBHash2
	slots []*posting
}

// hashString hashes a normalized tag to a uint64 key for the MPHF.
func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// BuildIndex makes one pass over every artist's tags, normalizing each
// tag and appending the artist to that tag's posting. Construction is
// O(total tags).
func BuildIndex(artists map[string]*canonical.Artist) (*Index, error) {
	entries := make(map[string]*posting)
	for name, artist := range artists {
		for _, tag := range artist.Tags {
			key := normalize.TagKey(tag)
			if key == "" {
				continue
			}
			p, ok := entries[key]
			if !ok {
				p = &posting{key: key, originals: make(map[string]struct{})}
				entries[key] = p
			}
			p.artists = append(p.artists, artistRef{name: name, artist: artist})
			p.originals[tag] = struct{}{}
		}
	}

	if len(entries) == 0 {
		return &Index{}, nil
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	hashes := make([]uint64, len(keys))
	seen := make(map[uint64]string, len(keys))
	for i, key := range keys {
		h := hashString(key)
		if prev, dup := seen[h]; dup {
			return nil, fmt.Errorf("tag hash collision between %q and %q", prev, key)
		}
		seen[h] = key
		hashes[i] = h
	}

	mph, err := bbhash.New(hashes, bbhash.Gamma(2.0))
	if err != nil {
		return nil, fmt.Errorf("build tag MPHF: %w", err)
	}

	// BBHash positions are 1-indexed; slot i holds the posting whose key
	// maps to position i+1.
	slots := make([]*posting, len(keys))
	for _, key := range keys {
		pos := mph.Find(hashString(key))
		if pos == 0 || pos > uint64(len(slots)) {
			return nil, fmt.Errorf("MPHF lookup failed for tag %q", key)
		}
		slots[pos-1] = entries[key]
	}

	return &Index{mph: mph, slots: slots}, nil
}

// Len returns the number of distinct normalized tags indexed.
func (idx *Index) Len() int {
	return len(idx.slots)
}

// lookup returns the posting for a tag, or nil when the normalized form
// is not indexed. The MPHF maps non-member keys to arbitrary positions,
// so the stored key is checked before trusting the slot.
func (idx *Index) lookup(tag string) *posting {
	if idx.mph == nil {
		return nil
	}
	key := normalize.TagKey(tag)
	if key == "" {
		return nil
	}
	pos := idx.mph.Find(hashString(key))
	if pos == 0 || pos > uint64(len(idx.slots)) {
		return nil
	}
	p := idx.slots[pos-1]
	if p == nil || p.key != key {
		return nil
	}
	return p
}
