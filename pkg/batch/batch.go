// Package batch partitions the catalog dump into fixed-size line windows,
// processes one window at a time in bounded memory, and checkpoints each
// window as an immutable JSON artifact.
//
// A batch is complete iff its artifact file exists; that existence check
// is the sole resumability mechanism, so rerunning a driver over the same
// range is idempotent. Artifacts are written via tmp+fsync+rename, so a
// crash mid-write never leaves an artifact that looks complete but is
// truncated. A failed batch leaves no artifact and is simply retried on
// the next invocation; there is no partial-batch resume below batch
// granularity.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkessy/genre-db/internal/logctx"
	"github.com/mkessy/genre-db/pkg/aggregate"
	"github.com/mkessy/genre-db/pkg/dumpstream"
	"github.com/mkessy/genre-db/pkg/extract"
	"github.com/mkessy/genre-db/pkg/fileutil"
	"github.com/mkessy/genre-db/pkg/logging"
)

// DefaultWindowSize is the number of dump lines per batch.
const DefaultWindowSize = 1_000_000

// cancelCheckInterval is how many lines are scanned between context
// cancellation checks.
const cancelCheckInterval = 4096

// Artifact is the persisted snapshot of one completed batch. Immutable
// once written.
type Artifact struct {
	BatchNumber     int                         `json:"batchNumber"`
	StartLine       int64                       `json:"startLine"`
	EndLine         int64                       `json:"endLine"` // exclusive
	ProcessedCount  int64                       `json:"processedCount"`
	ErrorCount      int64                       `json:"errorCount"`
	CompletedAt     time.Time                   `json:"completedAt"`
	DurationSeconds float64                     `json:"durationSeconds"`
	Artists         []aggregate.ArtistAggregate `json:"artists"`
}

// FailedError reports which batch a run aborted on, so the caller knows
// where to resume.
type FailedError struct {
	Batch int
	Err   error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("batch %d failed (resume from batch %d): %v", e.Batch, e.Batch, e.Err)
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// Config configures a Coordinator.
type Config struct {
	// DumpPath is the gzip-compressed line-oriented catalog dump.
	DumpPath string

	// OutDir receives batch artifacts and the run summary.
	OutDir string

	// WindowSize is the number of lines per batch. Defaults to
	// DefaultWindowSize.
	WindowSize int64

	// ProgressEvery is the line interval between progress log events.
	// Defaults to the window size / 10.
	ProgressEvery int64
}

// Coordinator drives the dump stream, extractor, and aggregator over
// single batch windows and persists the results.
type Coordinator struct {
	cfg       Config
	extractor *extract.Extractor
}

// NewCoordinator creates a Coordinator, applying config defaults.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = cfg.WindowSize / 10
		if cfg.ProgressEvery <= 0 {
			cfg.ProgressEvery = 1
		}
	}
	return &Coordinator{cfg: cfg, extractor: extract.New()}
}

// WindowSize returns the effective lines-per-batch.
func (c *Coordinator) WindowSize() int64 {
	return c.cfg.WindowSize
}

// ArtifactPath returns the artifact path for a batch number.
func (c *Coordinator) ArtifactPath(n int) string {
	return ArtifactPath(c.cfg.OutDir, n)
}

// Completed reports whether the batch already has a persisted artifact.
func (c *Coordinator) Completed(n int) bool {
	return fileutil.Exists(c.ArtifactPath(n))
}

// RunBatch processes one batch window. If the batch's artifact already
// exists the batch is skipped and the existing artifact is returned with
// skipped=true. A mid-run failure writes nothing, leaving the batch
// pending for the next invocation.
func (c *Coordinator) RunBatch(ctx context.Context, n int) (art *Artifact, skipped bool, err error) {
	log := logctx.FromContext(ctx)

	if c.Completed(n) {
		existing, err := ReadArtifact(c.ArtifactPath(n))
		if err != nil {
			return nil, false, fmt.Errorf("read completed artifact: %w", err)
		}
		log.Info().Int("batch", n).Str("path", c.ArtifactPath(n)).Msg("batch already complete, skipping")
		return existing, true, nil
	}

	startLine := int64(n) * c.cfg.WindowSize
	endLine := startLine + c.cfg.WindowSize
	start := time.Now()

	log.Info().
		Int("batch", n).
		Int64("start_line", startLine).
		Int64("end_line", endLine).
		Msg("batch started")

	agg := aggregate.New()
	processed, errCount, err := c.scanWindow(ctx, log, startLine, endLine, agg)
	if err != nil {
		return nil, false, err
	}

	elapsed := time.Since(start)
	artifact := &Artifact{
		BatchNumber:     n,
		StartLine:       startLine,
		EndLine:         endLine,
		ProcessedCount:  processed,
		ErrorCount:      errCount,
		CompletedAt:     time.Now().UTC(),
		DurationSeconds: elapsed.Seconds(),
		Artists:         agg.Snapshot(),
	}

	if err := writeJSONAtomic(c.ArtifactPath(n), artifact); err != nil {
		return nil, false, fmt.Errorf("write artifact: %w", err)
	}

	logging.BatchComplete(log, n, elapsed).
		Int64("processed", processed).
		Int("artists", agg.Len()).
		Int64("errors", errCount).
		Msg("batch completed")

	return artifact, false, nil
}

// scanWindow reads the dump from line 0, skipping lines before startLine
// without extracting them (the stream is not seekable by line number), and
// extracts and aggregates lines within [startLine, endLine). Memory stays
// bounded to one window's aggregate set.
func (c *Coordinator) scanWindow(ctx context.Context, log zerolog.Logger, startLine, endLine int64, agg *aggregate.Aggregator) (processed, errCount int64, err error) {
	stream, err := dumpstream.Open(c.cfg.DumpPath)
	if err != nil {
		return 0, 0, err
	}
	defer stream.Close()

	progress := logging.NewScanProgress(log, c.cfg.ProgressEvery)

	var line int64
	for line < endLine && stream.Next() {
		if line%cancelCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return 0, 0, ctx.Err()
			default:
			}
		}

		if line >= startLine {
			rec := c.extractor.Extract(stream.Line())
			if rec.IsRecord() {
				processed++
				if rec.Malformed {
					errCount++
				} else {
					for _, a := range rec.Artists {
						agg.Observe(a.ID, a.Name, rec.Genres, rec.Styles, rec.Year)
					}
				}
			}
			progress.Observe(line, processed, int64(agg.Len()), errCount)
		}
		line++
	}
	if err := stream.Err(); err != nil {
		return 0, 0, err
	}
	return processed, errCount, nil
}

func writeJSONAtomic(path string, v any) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	})
}

// ReadArtifact loads one persisted batch artifact.
func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return &art, nil
}
