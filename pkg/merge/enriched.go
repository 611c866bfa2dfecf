package merge

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/mkessy/genre-db/pkg/canonical"
	"github.com/mkessy/genre-db/pkg/fileutil"
)

// Meta is the top-level metadata of the enriched output document.
type Meta struct {
	GeneratedAt      time.Time `json:"generatedAt"`
	BatchesMerged    int       `json:"batchesMerged"`
	SourceArtists    int       `json:"sourceArtists"`
	CanonicalArtists int       `json:"canonicalArtists"`
	MatchedArtists   int       `json:"matchedArtists"`
	MatchRate        float64   `json:"matchRate"`
}

// WriteEnriched serializes the enriched output: the metadata fields plus
// an "artists" mapping restricted to canonical records that received at
// least one attached genre or style. Entries are marshaled one at a time
// in sorted key order rather than stringifying the whole map, since the
// canonical dataset may be too large to serialize atomically. The file is
// written via the atomic tmp+rename path.
func WriteEnriched(path string, canon map[string]*canonical.Artist, meta Meta) error {
	names := make([]string, 0, len(canon))
	for name, artist := range canon {
		if len(artist.DiscogsGenres) > 0 || len(artist.DiscogsStyles) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		// Meta marshals to a JSON object; drop its closing brace and
		// continue the same object with the artists mapping.
		if _, err := w.Write(metaJSON[:len(metaJSON)-1]); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `,"artists":{`); err != nil {
			return err
		}

		for i, name := range names {
			keyJSON, err := json.Marshal(name)
			if err != nil {
				return fmt.Errorf("marshal artist key: %w", err)
			}
			valJSON, err := json.Marshal(canon[name])
			if err != nil {
				return fmt.Errorf("marshal artist %q: %w", name, err)
			}
			if i > 0 {
				if _, err := io.WriteString(w, ","); err != nil {
					return err
				}
			}
			if _, err := w.Write(keyJSON); err != nil {
				return err
			}
			if _, err := io.WriteString(w, ":"); err != nil {
				return err
			}
			if _, err := w.Write(valJSON); err != nil {
				return err
			}
		}

		_, err = io.WriteString(w, "}}\n")
		return err
	})
}
