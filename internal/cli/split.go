package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mkessy/genre-db/pkg/fileutil"
	"github.com/mkessy/genre-db/pkg/logging"
)

// defaultChunkSize is how many artists each chunk file carries.
const defaultChunkSize = 60_000

// runSplitEnriched splits the enriched output document into fixed-size
// chunk files so memory-constrained consumers can load it piecewise. Each
// chunk repeats the top-level metadata and adds chunk_index,
// chunk_artist_count, and total_artist_count.
func runSplitEnriched(args []string) error {
	fs := flag.NewFlagSet("split-enriched", flag.ContinueOnError)
	in := fs.String("in", "", "enriched output file to split")
	outDir := fs.String("out-dir", "", "directory for chunk files")
	chunkSize := fs.Int("chunk-size", defaultChunkSize, "artists per chunk")
	debug := fs.Bool("debug", false, "enable debug logging")
	human := fs.Bool("human", false, "human-friendly log output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(*debug, *human)

	if *in == "" {
		return errors.New("--in is required")
	}
	if *outDir == "" {
		return errors.New("--out-dir is required")
	}
	if *chunkSize <= 0 {
		return errors.New("--chunk-size must be positive")
	}

	start := time.Now()
	log := logging.WithPhase("split-enriched")

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read enriched file: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse enriched file %s: %w", *in, err)
	}

	artistsRaw, ok := doc["artists"]
	if !ok {
		return fmt.Errorf("enriched file %s has no artists mapping", *in)
	}
	artists := make(map[string]json.RawMessage)
	if err := json.Unmarshal(artistsRaw, &artists); err != nil {
		return fmt.Errorf("parse artists mapping: %w", err)
	}
	delete(doc, "artists")

	names := make([]string, 0, len(artists))
	for name := range artists {
		names = append(names, name)
	}
	slices.Sort(names)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create chunk dir: %w", err)
	}

	chunkIndex := 0
	for offset := 0; offset < len(names); offset += *chunkSize {
		end := min(offset+*chunkSize, len(names))
		chunkNames := names[offset:end]

		chunk := make(map[string]json.RawMessage, len(doc)+4)
		for k, v := range doc {
			chunk[k] = v
		}
		chunk["chunk_index"] = mustRaw(chunkIndex)
		chunk["chunk_artist_count"] = mustRaw(len(chunkNames))
		chunk["total_artist_count"] = mustRaw(len(names))

		chunkArtists := make(map[string]json.RawMessage, len(chunkNames))
		for _, name := range chunkNames {
			chunkArtists[name] = artists[name]
		}
		raw, err := json.Marshal(chunkArtists)
		if err != nil {
			return fmt.Errorf("marshal chunk artists: %w", err)
		}
		chunk["artists"] = raw

		path := filepath.Join(*outDir, fmt.Sprintf("chunk-%02d.json", chunkIndex))
		if err := writeJSON(path, chunk); err != nil {
			return err
		}

		log.Debug().
			Int("chunk", chunkIndex).
			Int("artists", len(chunkNames)).
			Str("path", path).
			Msg("chunk written")
		chunkIndex++
	}

	logging.PhaseComplete(log, "split-enriched", time.Since(start)).
		Int("chunks", chunkIndex).
		Int("artists", len(names)).
		Str("out_dir", *outDir).
		Msg("split completed")

	return nil
}

func mustRaw(n int) json.RawMessage {
	raw, _ := json.Marshal(n)
	return raw
}

// writeJSON writes an indented JSON document via the atomic tmp+rename
// path.
func writeJSON(path string, v any) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	})
}
