// Package extract pulls artist credits and genre/style tags out of single
// catalog dump lines.
//
// Extraction is tolerant pattern matching over the raw line, not a full
// structured parse: a multi-gigabyte dump always contains some broken
// records, and one bad line must never abort a scan. Lines that are not
// records of interest yield an empty result; records whose artist
// sub-section cannot be parsed are flagged malformed so the caller can
// count them and move on.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MinYear is the lower bound of the plausible release-year range. The
// upper bound is the current calendar year.
const MinYear = 1900

// ArtistRef is one (id, name) credit extracted from a record's artists
// sub-section.
type ArtistRef struct {
	ID   string
	Name string
}

// Record is the extraction result for one line. The zero value means the
// line was not a record of interest.
type Record struct {
	Kind    string // "release" or "master"
	Artists []ArtistRef
	Genres  []string
	Styles  []string
	Year    int // 0 when absent or outside the plausible range

	// Malformed is set when the line carries a record marker but its
	// artists sub-section could not be parsed. Such records contribute
	// no observations and are counted by the caller, never raised.
	Malformed bool
}

// IsRecord reports whether the line carried a recognized record marker.
func (r Record) IsRecord() bool {
	return r.Kind != ""
}

var (
	reKind = regexp.MustCompile(`"type"\s*:\s*"(release|master)"`)

	// Matches the credited-artists array only. The leading [,{] anchor
	// keeps this from matching inside the "extraartists" key, which holds
	// contributors rather than credited artists.
	reArtistsKey     = regexp.MustCompile(`[,{]\s*"artists"\s*:`)
	reArtistsSection = regexp.MustCompile(`[,{]\s*"artists"\s*:\s*\[(.*?)\]`)

	reArtistPair = regexp.MustCompile(`"id"\s*:\s*(\d+)\s*,\s*"name"\s*:\s*"((?:[^"\\]|\\.)*)"`)

	reGenres = regexp.MustCompile(`"genres"\s*:\s*\[([^\]]*)\]`)
	reStyles = regexp.MustCompile(`"styles"\s*:\s*\[([^\]]*)\]`)
	reString = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

	reReleased = regexp.MustCompile(`"released"\s*:\s*"(\d{4})`)
	reYear     = regexp.MustCompile(`"year"\s*:\s*(\d{4})`)
)

// Extractor extracts records from dump lines. One instance can be shared;
// it holds only immutable state.
type Extractor struct {
	maxYear int
}

// New creates an Extractor bounding release years to the current calendar
// year.
func New() *Extractor {
	return &Extractor{maxYear: time.Now().Year()}
}

// Extract examines one line and returns what it found. Non-record lines
// return a zero-value Record; malformed records set Malformed and carry no
// observations. Extract never fails.
func (e *Extractor) Extract(line string) Record {
	kind := reKind.FindStringSubmatch(line)
	if kind == nil {
		return Record{}
	}
	rec := Record{Kind: kind[1]}

	if reArtistsKey.MatchString(line) {
		section := reArtistsSection.FindStringSubmatch(line)
		if section == nil {
			rec.Malformed = true
			return rec
		}
		for _, m := range reArtistPair.FindAllStringSubmatch(section[1], -1) {
			name := unescape(m[2])
			if name == "" {
				continue
			}
			rec.Artists = append(rec.Artists, ArtistRef{ID: m[1], Name: name})
		}
	}

	rec.Genres = stringList(reGenres, line)
	rec.Styles = stringList(reStyles, line)
	rec.Year = e.extractYear(line)
	return rec
}

func (e *Extractor) extractYear(line string) int {
	var raw string
	if m := reReleased.FindStringSubmatch(line); m != nil {
		raw = m[1]
	} else if m := reYear.FindStringSubmatch(line); m != nil {
		raw = m[1]
	} else {
		return 0
	}

	year, err := strconv.Atoi(raw)
	if err != nil || year < MinYear || year > e.maxYear {
		return 0
	}
	return year
}

// stringList extracts the quoted strings from the first match of an array
// pattern like "genres":[...].
func stringList(re *regexp.Regexp, line string) []string {
	section := re.FindStringSubmatch(line)
	if section == nil {
		return nil
	}
	var out []string
	for _, m := range reString.FindAllStringSubmatch(section[1], -1) {
		if v := unescape(m[1]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// unescape decodes a JSON string body. Falls back to simple replacements
// when the body is not a valid quoted string, keeping extraction tolerant.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	if v, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return v
	}
	r := strings.NewReplacer(`\"`, `"`, `\\`, `\`)
	return r.Replace(s)
}
