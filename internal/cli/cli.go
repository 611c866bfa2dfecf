// Package cli implements the command-line interface for genredb-etl.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mkessy/genre-db/pkg/batch"
	"github.com/mkessy/genre-db/pkg/canonical"
	"github.com/mkessy/genre-db/pkg/fileutil"
	"github.com/mkessy/genre-db/pkg/humanfmt"
	"github.com/mkessy/genre-db/pkg/logging"
	"github.com/mkessy/genre-db/pkg/merge"
	"github.com/mkessy/genre-db/pkg/ontology"
	"github.com/mkessy/genre-db/pkg/s3fetch"
	"github.com/mkessy/genre-db/pkg/sysmem"
)

// ErrPartialErrors marks a run that completed but skipped some records.
// main distinguishes it from both success and an aborted run in the exit
// status.
var ErrPartialErrors = errors.New("completed with partial errors")

// windowSizeEnv overrides the default batch window size when the
// --window-size flag is not given.
const windowSizeEnv = "GENREDB_WINDOW_SIZE"

const usage = "usage: genredb-etl <command> [options]\n" +
	"commands: run-batches, merge-batches, enrich-ontology, fetch-dump, split-enriched"

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "run-batches":
		return runBatches(args[1:])
	case "merge-batches":
		return runMergeBatches(args[1:])
	case "enrich-ontology":
		return runEnrichOntology(args[1:])
	case "fetch-dump":
		return runFetchDump(args[1:])
	case "split-enriched":
		return runSplitEnriched(args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// determineWindowSize resolves the batch window size: CLI flag first, then
// the GENREDB_WINDOW_SIZE environment variable, then the built-in default.
func determineWindowSize(flagValue int64) (size int64, source string, err error) {
	if flagValue != 0 {
		if flagValue < 0 {
			return 0, "", errors.New("--window-size must be positive")
		}
		return flagValue, "cli", nil
	}

	if env := os.Getenv(windowSizeEnv); env != "" {
		v, err := strconv.ParseInt(env, 10, 64)
		if err != nil || v <= 0 {
			return 0, "", fmt.Errorf("%s: invalid window size %q", windowSizeEnv, env)
		}
		return v, "env", nil
	}

	return batch.DefaultWindowSize, "default", nil
}

func runBatches(args []string) error {
	fs := flag.NewFlagSet("run-batches", flag.ContinueOnError)
	dump := fs.String("dump", "", "gzip-compressed catalog dump file")
	out := fs.String("out", "", "output directory for batch artifacts")
	startBatch := fs.Int("start", 0, "first batch number (inclusive)")
	endBatch := fs.Int("end", 0, "last batch number (exclusive)")
	windowSize := fs.Int64("window-size", 0, "lines per batch (default: $"+windowSizeEnv+" or 1000000)")
	progressEvery := fs.Int64("progress-every", 0, "lines between progress log events")
	debug := fs.Bool("debug", false, "enable debug logging")
	human := fs.Bool("human", false, "human-friendly log output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(*debug, *human)

	if *dump == "" {
		return errors.New("--dump is required")
	}
	if *out == "" {
		return errors.New("--out is required")
	}
	if *endBatch <= *startBatch {
		return fmt.Errorf("--end (%d) must be greater than --start (%d)", *endBatch, *startBatch)
	}
	if !fileutil.Exists(*dump) {
		return fmt.Errorf("dump file not found: %s", *dump)
	}

	size, source, err := determineWindowSize(*windowSize)
	if err != nil {
		return err
	}

	mem := sysmem.Detect()
	log := logging.WithPhase("run-batches")
	log.Info().
		Str("dump", *dump).
		Int("start_batch", *startBatch).
		Int("end_batch", *endBatch).
		Int64("window_size", size).
		Str("window_source", source).
		Uint64("system_memory", mem.TotalBytes).
		Bool("memory_reliable", mem.Reliable).
		Str("system_memory_h", humanfmt.BytesUint64(mem.TotalBytes)).
		Msg("starting batch run")

	coord := batch.NewCoordinator(batch.Config{
		DumpPath:      *dump,
		OutDir:        *out,
		WindowSize:    size,
		ProgressEvery: *progressEvery,
	})

	summary, err := coord.RunRange(context.Background(), *startBatch, *endBatch)
	if err != nil {
		var failed *batch.FailedError
		if errors.As(err, &failed) {
			log.Error().
				Int("failed_batch", failed.Batch).
				Int("resume_from", failed.Batch).
				Msg("batch run aborted")
		}
		return err
	}

	if summary.TotalErrors > 0 {
		return fmt.Errorf("%w: %d records failed extraction", ErrPartialErrors, summary.TotalErrors)
	}
	return nil
}

func runMergeBatches(args []string) error {
	fs := flag.NewFlagSet("merge-batches", flag.ContinueOnError)
	batches := fs.String("batches", "", "directory holding batch artifacts")
	canonicalPath := fs.String("canonical", "", "canonical artist dataset (JSON)")
	out := fs.String("out", "", "enriched output file")
	parquetOut := fs.String("parquet", "", "optional Parquet export of merged aggregates")
	debug := fs.Bool("debug", false, "enable debug logging")
	human := fs.Bool("human", false, "human-friendly log output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(*debug, *human)

	if *batches == "" {
		return errors.New("--batches is required")
	}
	if *canonicalPath == "" {
		return errors.New("--canonical is required")
	}
	if *out == "" {
		return errors.New("--out is required")
	}

	ctx := context.Background()
	start := time.Now()
	log := logging.WithPhase("merge-batches")

	aggs, batchCount, err := merge.LoadAll(ctx, *batches)
	if err != nil {
		return err
	}

	canon, err := canonical.Load(*canonicalPath)
	if err != nil {
		return err
	}

	matched, total := merge.MatchToCanonical(canon, aggs)
	var rate float64
	if total > 0 {
		rate = float64(matched) / float64(total)
	}

	meta := merge.Meta{
		GeneratedAt:      time.Now().UTC(),
		BatchesMerged:    batchCount,
		SourceArtists:    aggs.Len(),
		CanonicalArtists: total,
		MatchedArtists:   matched,
		MatchRate:        rate,
	}
	if err := merge.WriteEnriched(*out, canon, meta); err != nil {
		return err
	}

	if *parquetOut != "" {
		if err := merge.ExportParquet(*parquetOut, aggs); err != nil {
			return err
		}
	}

	logging.PhaseComplete(log, "merge-batches", time.Since(start)).
		Int("batches", batchCount).
		Int("source_artists", aggs.Len()).
		Int("canonical_artists", total).
		Int("matched", matched).
		Float64("match_rate", rate).
		Str("out", *out).
		Msg("merge completed")

	return nil
}

func runEnrichOntology(args []string) error {
	fs := flag.NewFlagSet("enrich-ontology", flag.ContinueOnError)
	taxonomy := fs.String("taxonomy", "", "genre taxonomy file (JSON)")
	artistsPath := fs.String("artists", "", "artist dataset to index (JSON)")
	out := fs.String("out", "", "enrichment output file")
	topCountries := fs.Int("top-countries", ontology.DefaultTopCountries, "countries reported per genre")
	debug := fs.Bool("debug", false, "enable debug logging")
	human := fs.Bool("human", false, "human-friendly log output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(*debug, *human)

	if *taxonomy == "" {
		return errors.New("--taxonomy is required")
	}
	if *artistsPath == "" {
		return errors.New("--artists is required")
	}
	if *out == "" {
		return errors.New("--out is required")
	}

	start := time.Now()
	log := logging.WithPhase("enrich-ontology")

	entries, err := ontology.LoadTaxonomy(*taxonomy)
	if err != nil {
		return err
	}
	artists, err := canonical.Load(*artistsPath)
	if err != nil {
		return err
	}

	idx, err := ontology.BuildIndex(artists)
	if err != nil {
		return err
	}
	log.Info().
		Int("genres", len(entries)).
		Int("artists", len(artists)).
		Int("indexed_tags", idx.Len()).
		Msg("tag index built")

	results := make([]ontology.Enrichment, 0, len(entries))
	for _, entry := range entries {
		results = append(results, idx.Enrich(entry, *topCountries))
	}

	doc := struct {
		GeneratedAt time.Time             `json:"generatedAt"`
		GenreCount  int                   `json:"genreCount"`
		ArtistCount int                   `json:"artistCount"`
		Genres      []ontology.Enrichment `json:"genres"`
	}{
		GeneratedAt: time.Now().UTC(),
		GenreCount:  len(entries),
		ArtistCount: len(artists),
		Genres:      results,
	}
	if err := writeJSON(*out, doc); err != nil {
		return err
	}

	logging.PhaseComplete(log, "enrich-ontology", time.Since(start)).
		Int("genres", len(results)).
		Str("out", *out).
		Msg("ontology enrichment completed")

	return nil
}

func runFetchDump(args []string) error {
	fs := flag.NewFlagSet("fetch-dump", flag.ContinueOnError)
	uri := fs.String("uri", "", "source object (s3://bucket/key)")
	out := fs.String("out", "", "destination file")
	debug := fs.Bool("debug", false, "enable debug logging")
	human := fs.Bool("human", false, "human-friendly log output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.Init(*debug, *human)

	if *uri == "" {
		return errors.New("--uri is required")
	}
	if *out == "" {
		return errors.New("--out is required")
	}

	ctx := context.Background()
	client, err := s3fetch.NewClient(ctx)
	if err != nil {
		return err
	}
	_, err = client.DownloadToFile(ctx, *uri, *out)
	return err
}
