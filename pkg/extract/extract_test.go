package extract

import (
	"fmt"
	"reflect"
	"testing"
	"time"
)

func TestExtractRelease(t *testing.T) {
	e := New()
	line := `{"type":"release","id":123,"title":"Leave Home",` +
		`"artists":[{"id":10,"name":"The Ramones"},{"id":11,"name":"Misfits"}],` +
		`"extraartists":[{"id":99,"name":"Producer X"}],` +
		`"genres":["Rock"],"styles":["Punk","Hardcore"],"released":"1977-01-10"}`

	rec := e.Extract(line)
	if !rec.IsRecord() {
		t.Fatal("expected a record")
	}
	if rec.Kind != "release" {
		t.Errorf("Kind = %q, want release", rec.Kind)
	}
	if rec.Malformed {
		t.Error("record unexpectedly malformed")
	}

	wantArtists := []ArtistRef{{ID: "10", Name: "The Ramones"}, {ID: "11", Name: "Misfits"}}
	if !reflect.DeepEqual(rec.Artists, wantArtists) {
		t.Errorf("Artists = %v, want %v", rec.Artists, wantArtists)
	}
	if !reflect.DeepEqual(rec.Genres, []string{"Rock"}) {
		t.Errorf("Genres = %v", rec.Genres)
	}
	if !reflect.DeepEqual(rec.Styles, []string{"Punk", "Hardcore"}) {
		t.Errorf("Styles = %v", rec.Styles)
	}
	if rec.Year != 1977 {
		t.Errorf("Year = %d, want 1977", rec.Year)
	}
}

func TestExtractMaster(t *testing.T) {
	e := New()
	line := `{"type":"master","id":55,"artists":[{"id":7,"name":"Kraftwerk"}],"genres":["Electronic"],"year":1981}`

	rec := e.Extract(line)
	if rec.Kind != "master" {
		t.Fatalf("Kind = %q, want master", rec.Kind)
	}
	if len(rec.Artists) != 1 || rec.Artists[0].ID != "7" {
		t.Errorf("Artists = %v", rec.Artists)
	}
	if rec.Year != 1981 {
		t.Errorf("Year = %d, want 1981", rec.Year)
	}
}

func TestExtractIgnoresNonRecords(t *testing.T) {
	e := New()
	for _, line := range []string{
		"",
		"not json at all",
		`{"checkpoint":42}`,
		`{"type":"label","id":1,"name":"Stiff Records"}`,
	} {
		rec := e.Extract(line)
		if rec.IsRecord() {
			t.Errorf("line %q unexpectedly extracted as record", line)
		}
		if rec.Malformed {
			t.Errorf("non-record line %q flagged malformed", line)
		}
	}
}

func TestExtractExcludesExtraArtists(t *testing.T) {
	e := New()

	t.Run("extra artists alongside credited artists", func(t *testing.T) {
		line := `{"type":"release","artists":[{"id":1,"name":"Eno"}],"extraartists":[{"id":2,"name":"Engineer"}]}`
		rec := e.Extract(line)
		if len(rec.Artists) != 1 || rec.Artists[0].Name != "Eno" {
			t.Errorf("Artists = %v, want only Eno", rec.Artists)
		}
	})

	t.Run("extra artists only", func(t *testing.T) {
		line := `{"type":"release","extraartists":[{"id":2,"name":"Engineer"}]}`
		rec := e.Extract(line)
		if len(rec.Artists) != 0 {
			t.Errorf("Artists = %v, want none", rec.Artists)
		}
		if rec.Malformed {
			t.Error("record without credited artists flagged malformed")
		}
	})
}

func TestExtractSkipPolicy(t *testing.T) {
	e := New()

	t.Run("malformed artists sub-section", func(t *testing.T) {
		line := `{"type":"release","artists":{"id":1,"name":"Broken"}`
		rec := e.Extract(line)
		if !rec.IsRecord() {
			t.Fatal("marker present, expected a record")
		}
		if !rec.Malformed {
			t.Error("expected Malformed for unparseable artists sub-section")
		}
		if len(rec.Artists) != 0 {
			t.Errorf("malformed record contributed artists: %v", rec.Artists)
		}
	})

	t.Run("empty artists list is valid", func(t *testing.T) {
		line := `{"type":"release","artists":[],"genres":["Rock"]}`
		rec := e.Extract(line)
		if rec.Malformed {
			t.Error("empty artist list flagged malformed")
		}
		if len(rec.Artists) != 0 {
			t.Errorf("Artists = %v, want none", rec.Artists)
		}
	})
}

func TestExtractYearBounds(t *testing.T) {
	e := New()
	tests := []struct {
		year string
		want int
	}{
		{"1850", 0},
		{"3000", 0},
		{"1899", 0},
		{"1900", 1900},
		{"1998", 1998},
		{fmt.Sprint(time.Now().Year()), time.Now().Year()},
	}

	for _, tt := range tests {
		t.Run(tt.year, func(t *testing.T) {
			line := fmt.Sprintf(`{"type":"release","artists":[{"id":1,"name":"A"}],"released":"%s-01-01"}`, tt.year)
			rec := e.Extract(line)
			if rec.Year != tt.want {
				t.Errorf("Year = %d, want %d", rec.Year, tt.want)
			}
		})
	}
}

func TestExtractEscapedNames(t *testing.T) {
	e := New()
	// The second name contains escaped quotes.
	line := `{"type":"release","artists":[{"id":3,"name":"Guns N' Roses"},{"id":4,"name":"\"Weird Al\" Yankovic"}]}`
	rec := e.Extract(line)
	if len(rec.Artists) != 2 {
		t.Fatalf("Artists = %v, want 2 entries", rec.Artists)
	}
	if rec.Artists[1].Name != `"Weird Al" Yankovic` {
		t.Errorf("Name = %q", rec.Artists[1].Name)
	}
}
