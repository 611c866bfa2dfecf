package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/mkessy/genre-db/internal/logctx"
	"github.com/mkessy/genre-db/pkg/fileutil"
	"github.com/mkessy/genre-db/pkg/logging"
)

// SummaryFileName is written once after the last batch in a requested
// range completes.
const SummaryFileName = "summary.json"

var artifactNameRe = regexp.MustCompile(`^batch_(\d{4,})\.json$`)

// ArtifactPath returns the artifact path for a batch number under dir.
func ArtifactPath(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("batch_%04d.json", n))
}

// ListCompletedBatches scans the output directory and returns the sorted
// batch numbers whose artifact already exists.
func ListCompletedBatches(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan batch dir: %w", err)
	}

	var batches []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := artifactNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		batches = append(batches, n)
	}
	slices.Sort(batches)
	return batches, nil
}

// BatchSummary is one batch's entry in the run summary.
type BatchSummary struct {
	BatchNumber     int     `json:"batchNumber"`
	ProcessedCount  int64   `json:"processedCount"`
	ErrorCount      int64   `json:"errorCount"`
	ArtistCount     int     `json:"artistCount"`
	DurationSeconds float64 `json:"durationSeconds"`
	Skipped         bool    `json:"skipped"`
}

// RunSummary aggregates counts across a full driver run.
type RunSummary struct {
	StartBatch     int            `json:"startBatch"`
	EndBatch       int            `json:"endBatch"` // exclusive
	TotalProcessed int64          `json:"totalProcessed"`
	TotalArtists   int64          `json:"totalArtists"`
	TotalErrors    int64          `json:"totalErrors"`
	SkippedBatches int            `json:"skippedBatches"`
	CompletedAt    time.Time      `json:"completedAt"`
	Batches        []BatchSummary `json:"batches"`
}

// RunRange processes each not-yet-completed batch in [startBatch,
// endBatch) in ascending order. On a batch-level failure it aborts the
// whole run without attempting later batches and returns a *FailedError
// naming the batch to resume from. After the whole range completes it
// writes the summary file and returns the summary.
func (c *Coordinator) RunRange(ctx context.Context, startBatch, endBatch int) (*RunSummary, error) {
	if startBatch < 0 || endBatch <= startBatch {
		return nil, fmt.Errorf("invalid batch range [%d, %d)", startBatch, endBatch)
	}

	if err := os.MkdirAll(c.cfg.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	// Stale tmp files from interrupted runs are harmless but worth sweeping.
	if err := fileutil.CleanupTmpFiles(c.cfg.OutDir); err != nil {
		return nil, fmt.Errorf("clean output dir: %w", err)
	}

	start := time.Now()
	summary := &RunSummary{StartBatch: startBatch, EndBatch: endBatch}

	for n := startBatch; n < endBatch; n++ {
		batchCtx := logctx.WithInt(ctx, "batch", n)
		art, skipped, err := c.RunBatch(batchCtx, n)
		if err != nil {
			return nil, &FailedError{Batch: n, Err: err}
		}
		if skipped {
			summary.SkippedBatches++
		}
		summary.TotalProcessed += art.ProcessedCount
		summary.TotalArtists += int64(len(art.Artists))
		summary.TotalErrors += art.ErrorCount
		summary.Batches = append(summary.Batches, BatchSummary{
			BatchNumber:     art.BatchNumber,
			ProcessedCount:  art.ProcessedCount,
			ErrorCount:      art.ErrorCount,
			ArtistCount:     len(art.Artists),
			DurationSeconds: art.DurationSeconds,
			Skipped:         skipped,
		})
	}

	summary.CompletedAt = time.Now().UTC()
	summaryPath := filepath.Join(c.cfg.OutDir, SummaryFileName)
	if err := writeJSONAtomic(summaryPath, summary); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}

	log := logctx.FromContext(ctx)
	logging.PhaseComplete(log, "run-batches", time.Since(start)).
		Int("batches", len(summary.Batches)).
		Int("skipped", summary.SkippedBatches).
		Int64("processed", summary.TotalProcessed).
		Int64("errors", summary.TotalErrors).
		Msg("batch range completed")

	return summary, nil
}
