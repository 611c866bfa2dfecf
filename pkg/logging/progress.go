package logging

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/mkessy/genre-db/pkg/humanfmt"
)

// ScanProgress emits coarse-grained progress events during a line scan.
// Progress is reported every Every lines rather than per line to bound the
// I/O overhead of reporting itself. Not safe for concurrent use; each scan
// owns its own reporter.
type ScanProgress struct {
	log   zerolog.Logger
	every int64
	start time.Time
	next  int64
}

// NewScanProgress creates a reporter that logs every `every` lines.
func NewScanProgress(log zerolog.Logger, every int64) *ScanProgress {
	if every <= 0 {
		every = 1_000_000
	}
	return &ScanProgress{
		log:   log,
		every: every,
		start: time.Now(),
		next:  every,
	}
}

// Observe reports the current scan position and emits a progress event
// when the next threshold is crossed.
func (sp *ScanProgress) Observe(line, processed, artists, errors int64) {
	if line < sp.next {
		return
	}
	sp.next = (line/sp.every + 1) * sp.every

	elapsed := time.Since(sp.start)
	e := sp.log.Info().
		Str("event", "scan_progress").
		Int64("line", line).
		Int64("processed", processed).
		Int64("artists", artists).
		Int64("errors", errors).
		Int64("elapsed_ms", elapsed.Milliseconds())
	if IsPrettyMode() {
		e = e.
			Str("line_h", humanfmt.Count(line)).
			Str("rate_h", humanfmt.Rate(line, elapsed)).
			Str("elapsed_h", humanfmt.Duration(elapsed))
	}
	e.Msg("scan progress")
}

// Elapsed returns the time since the scan started.
func (sp *ScanProgress) Elapsed() time.Duration {
	return time.Since(sp.start)
}

// PhaseComplete logs a phase completion event with a duration and the
// optional human-readable companion field.
func PhaseComplete(log zerolog.Logger, phase string, elapsed time.Duration) *zerolog.Event {
	e := log.Info().
		Str("event", "phase_completed").
		Str("phase", phase).
		Int64("duration_ms", elapsed.Milliseconds())
	if IsPrettyMode() {
		e = e.Str("duration_h", humanfmt.Duration(elapsed))
	}
	return e
}

// BatchComplete logs a batch completion event.
func BatchComplete(log zerolog.Logger, batch int, elapsed time.Duration) *zerolog.Event {
	e := log.Info().
		Str("event", "batch_completed").
		Int("batch", batch).
		Int64("duration_ms", elapsed.Milliseconds())
	if IsPrettyMode() {
		e = e.Str("duration_h", humanfmt.Duration(elapsed))
	}
	return e
}
