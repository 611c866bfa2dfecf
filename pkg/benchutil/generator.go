// Package benchutil generates synthetic catalog dump data for tests and
// benchmarks.
package benchutil

import (
	"compress/gzip"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
)

// GeneratorConfig configures synthetic dump generation.
type GeneratorConfig struct {
	// NumLines is the total number of dump lines to generate.
	NumLines int

	// ArtistPool is how many distinct artist ids the lines draw from.
	ArtistPool int

	// NoiseEvery inserts a non-record line every N lines. 0 disables.
	NoiseEvery int

	// Seed for reproducible generation. 0 = use default seed.
	Seed int64
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig(numLines int) GeneratorConfig {
	return GeneratorConfig{
		NumLines:   numLines,
		ArtistPool: numLines/10 + 1,
		NoiseEvery: 13,
		Seed:       42,
	}
}

var (
	genrePool = []string{"Rock", "Electronic", "Funk / Soul", "Jazz", "Hip Hop", "Classical"}
	stylePool = []string{"Disco", "House", "Punk", "Ambient", "Bebop", "Techno", "Soul"}
)

// Generator produces synthetic catalog dump lines.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// NewGenerator creates a seeded generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}
	if cfg.ArtistPool <= 0 {
		cfg.ArtistPool = 1
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Line returns the i-th synthetic line. Lines at NoiseEvery intervals are
// non-record noise; the rest are release records with one or two credited
// artists, genre/style tags, and a release year.
func (g *Generator) Line(i int) string {
	if g.cfg.NoiseEvery > 0 && i%g.cfg.NoiseEvery == 0 {
		return fmt.Sprintf(`{"checkpoint":%d}`, i)
	}

	artistID := g.rng.Intn(g.cfg.ArtistPool) + 1
	genre := genrePool[g.rng.Intn(len(genrePool))]
	style := stylePool[g.rng.Intn(len(stylePool))]
	year := 1960 + g.rng.Intn(60)

	var b strings.Builder
	fmt.Fprintf(&b, `{"type":"release","id":%d,"title":"Release %d",`, i, i)
	fmt.Fprintf(&b, `"artists":[{"id":%d,"name":"Artist %d"}`, artistID, artistID)
	if g.rng.Intn(4) == 0 {
		second := g.rng.Intn(g.cfg.ArtistPool) + 1
		fmt.Fprintf(&b, `,{"id":%d,"name":"Artist %d"}`, second, second)
	}
	fmt.Fprintf(&b, `],"extraartists":[{"id":9999999,"name":"Producer X"}],`)
	fmt.Fprintf(&b, `"genres":[%q],"styles":[%q],"released":"%d-01-01"}`, genre, style, year)
	return b.String()
}

// WriteDump writes a complete gzip-compressed synthetic dump to path.
func WriteDump(path string, cfg GeneratorConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dump: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	gen := NewGenerator(cfg)
	for i := 0; i < cfg.NumLines; i++ {
		if _, err := io.WriteString(gz, gen.Line(i)+"\n"); err != nil {
			gz.Close()
			return fmt.Errorf("write dump line: %w", err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}
	return nil
}
