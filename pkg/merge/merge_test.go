package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mkessy/genre-db/pkg/aggregate"
	"github.com/mkessy/genre-db/pkg/batch"
	"github.com/mkessy/genre-db/pkg/canonical"
)

func writeArtifact(t *testing.T, dir string, n int, artists []aggregate.ArtistAggregate) {
	t.Helper()
	art := batch.Artifact{
		BatchNumber:    n,
		StartLine:      int64(n) * 100,
		EndLine:        int64(n+1) * 100,
		ProcessedCount: int64(len(artists)),
		CompletedAt:    time.Now().UTC(),
		Artists:        artists,
	}
	data, err := json.Marshal(art)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(batch.ArtifactPath(dir, n), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAllUnionsBatches(t *testing.T) {
	dir := t.TempDir()

	// Artist A123 appears in both batches with different genres; the
	// merged aggregate must union them and sum counts regardless of
	// which batch ran first.
	writeArtifact(t, dir, 0, []aggregate.ArtistAggregate{
		{SourceID: "A123", Name: "Chic", Genres: []string{"funk"}, Styles: []string{}, ReleaseYears: []int{1977}, ReleaseCount: 2},
	})
	writeArtifact(t, dir, 1, []aggregate.ArtistAggregate{
		{SourceID: "A123", Name: "Chic", Genres: []string{"disco"}, Styles: []string{}, ReleaseYears: []int{1979}, ReleaseCount: 1},
		{SourceID: "B456", Name: "Kraftwerk", Genres: []string{"electronic"}, Styles: []string{"synth-pop"}, ReleaseYears: []int{1981}, ReleaseCount: 1},
	})

	aggs, count, err := LoadAll(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if count != 2 {
		t.Errorf("artifact count = %d, want 2", count)
	}
	if aggs.Len() != 2 {
		t.Fatalf("artist count = %d, want 2", aggs.Len())
	}

	snap := aggs.Snapshot()
	a := snap[0]
	if a.SourceID != "A123" {
		t.Fatalf("first aggregate = %q", a.SourceID)
	}
	if !reflect.DeepEqual(a.Genres, []string{"disco", "funk"}) {
		t.Errorf("Genres = %v, want union", a.Genres)
	}
	if !reflect.DeepEqual(a.ReleaseYears, []int{1977, 1979}) {
		t.Errorf("ReleaseYears = %v", a.ReleaseYears)
	}
	if a.ReleaseCount != 3 {
		t.Errorf("ReleaseCount = %d, want 3", a.ReleaseCount)
	}
}

func TestLoadAllEmptyDir(t *testing.T) {
	_, _, err := LoadAll(context.Background(), t.TempDir())
	if err == nil {
		t.Fatal("expected error for directory without artifacts")
	}
}

func TestMatchToCanonicalReportsRate(t *testing.T) {
	aggs := aggregate.New()
	for i := 0; i < 37; i++ {
		// Source names differ from canonical spelling but normalize
		// to the same key.
		aggs.Observe(fmt.Sprint(i), fmt.Sprintf("The Artist %03d!", i), []string{"rock"}, nil, 1990)
	}

	canon := make(map[string]*canonical.Artist)
	for i := 0; i < 100; i++ {
		canon[fmt.Sprintf("Artist %03d", i)] = &canonical.Artist{}
	}

	matched, total := MatchToCanonical(canon, aggs)
	if matched != 37 || total != 100 {
		t.Errorf("matched=%d total=%d, want 37/100", matched, total)
	}

	hit := canon["Artist 005"]
	if !reflect.DeepEqual(hit.DiscogsGenres, []string{"rock"}) {
		t.Errorf("DiscogsGenres = %v", hit.DiscogsGenres)
	}
	if !reflect.DeepEqual(hit.ReleaseYears, []int{1990}) {
		t.Errorf("ReleaseYears = %v", hit.ReleaseYears)
	}
	miss := canon["Artist 050"]
	if miss.DiscogsGenres != nil || miss.DiscogsStyles != nil {
		t.Errorf("unmatched record enriched: %+v", miss)
	}
}

func TestMatchToCanonicalMergesCollidingNames(t *testing.T) {
	// Two distinct source ids normalize to the same name; their sets
	// merge before the join.
	aggs := aggregate.New()
	aggs.Observe("1", "The Ramones", []string{"rock"}, []string{"punk"}, 1977)
	aggs.Observe("2", "Ramones!", []string{"punk rock"}, nil, 1980)

	canon := map[string]*canonical.Artist{"Ramones": {}}
	matched, total := MatchToCanonical(canon, aggs)
	if matched != 1 || total != 1 {
		t.Fatalf("matched=%d total=%d", matched, total)
	}
	if !reflect.DeepEqual(canon["Ramones"].DiscogsGenres, []string{"punk rock", "rock"}) {
		t.Errorf("DiscogsGenres = %v, want merged union", canon["Ramones"].DiscogsGenres)
	}
	if !reflect.DeepEqual(canon["Ramones"].ReleaseYears, []int{1977, 1980}) {
		t.Errorf("ReleaseYears = %v", canon["Ramones"].ReleaseYears)
	}
}

func TestWriteEnriched(t *testing.T) {
	canon := map[string]*canonical.Artist{
		"Chic":    {Country: "US", DiscogsGenres: []string{"disco", "funk"}, ReleaseYears: []int{1977}},
		"Nobody":  {Country: "GB"},
		"Zeropad": {DiscogsStyles: []string{"ambient"}},
	}
	meta := Meta{
		GeneratedAt:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		BatchesMerged:    4,
		SourceArtists:    1000,
		CanonicalArtists: 3,
		MatchedArtists:   2,
		MatchRate:        2.0 / 3.0,
	}

	path := filepath.Join(t.TempDir(), "enriched.json")
	if err := WriteEnriched(path, canon, meta); err != nil {
		t.Fatalf("WriteEnriched: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		GeneratedAt    time.Time                    `json:"generatedAt"`
		BatchesMerged  int                          `json:"batchesMerged"`
		MatchedArtists int                          `json:"matchedArtists"`
		MatchRate      float64                      `json:"matchRate"`
		Artists        map[string]*canonical.Artist `json:"artists"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if doc.BatchesMerged != 4 || doc.MatchedArtists != 2 {
		t.Errorf("metadata = %+v", doc)
	}
	// Records without any attached genre/style are dropped.
	if _, ok := doc.Artists["Nobody"]; ok {
		t.Error("unmatched record present in enriched output")
	}
	if len(doc.Artists) != 2 {
		t.Errorf("artists = %d entries, want 2", len(doc.Artists))
	}
	if got := doc.Artists["Chic"]; got == nil || !reflect.DeepEqual(got.DiscogsGenres, []string{"disco", "funk"}) {
		t.Errorf("Chic = %+v", got)
	}
}

func TestWriteEnrichedEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enriched.json")
	if err := WriteEnriched(path, map[string]*canonical.Artist{}, Meta{}); err != nil {
		t.Fatalf("WriteEnriched: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	artists, ok := doc["artists"].(map[string]any)
	if !ok || len(artists) != 0 {
		t.Errorf("artists = %v, want empty object", doc["artists"])
	}
}

func TestExportParquet(t *testing.T) {
	aggs := aggregate.New()
	aggs.Observe("1", "Chic", []string{"funk"}, []string{"disco"}, 1977)
	aggs.Observe("2", "Kraftwerk", []string{"electronic"}, nil, 1981)

	path := filepath.Join(t.TempDir(), "aggregates.parquet")
	if err := ExportParquet(path, aggs); err != nil {
		t.Fatalf("ExportParquet: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("parquet export is empty")
	}
}
