package canonical

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artists.json")
	doc := `{
  "Chic": {"country": "US", "tags": ["disco", "funk"]},
  "Kraftwerk": {"country": "DE", "tags": ["electronic"]},
  "Unknown": {}
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	artists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(artists) != 3 {
		t.Fatalf("got %d artists, want 3", len(artists))
	}

	chic := artists["Chic"]
	if chic == nil || chic.Country != "US" || !reflect.DeepEqual(chic.Tags, []string{"disco", "funk"}) {
		t.Errorf("Chic = %+v", chic)
	}
	// Enrichment fields start empty; the merger attaches them.
	if chic.DiscogsGenres != nil || chic.ReleaseYears != nil {
		t.Errorf("freshly loaded record carries enrichment: %+v", chic)
	}

	unknown := artists["Unknown"]
	if unknown == nil || unknown.Country != "" || unknown.Tags != nil {
		t.Errorf("Unknown = %+v", unknown)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"Chic": `), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}
