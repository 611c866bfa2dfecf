package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestScanProgressCadence(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	sp := NewScanProgress(log, 100)
	for line := int64(1); line <= 350; line++ {
		sp.Observe(line, line, line/2, 0)
	}

	events := strings.Count(buf.String(), "scan_progress")
	// Thresholds crossed at 100, 200, 300.
	if events != 3 {
		t.Errorf("emitted %d progress events, want 3\n%s", events, buf.String())
	}
	if !strings.Contains(buf.String(), `"line":100`) {
		t.Errorf("first event missing line field:\n%s", buf.String())
	}
}

func TestScanProgressDefaultInterval(t *testing.T) {
	var buf bytes.Buffer
	sp := NewScanProgress(zerolog.New(&buf), 0)

	sp.Observe(999_999, 0, 0, 0)
	if buf.Len() != 0 {
		t.Errorf("emitted before default threshold:\n%s", buf.String())
	}
	sp.Observe(1_000_000, 0, 0, 0)
	if buf.Len() == 0 {
		t.Error("no event at default threshold")
	}
}

func TestScanProgressPrettyCompanions(t *testing.T) {
	pretty.Store(true)
	defer pretty.Store(false)

	var buf bytes.Buffer
	sp := NewScanProgress(zerolog.New(&buf), 10)
	sp.Observe(10, 10, 5, 0)

	if !strings.Contains(buf.String(), "line_h") {
		t.Errorf("pretty mode missing companion fields:\n%s", buf.String())
	}
}

func TestPhaseComplete(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	PhaseComplete(log, "merge", 1500*time.Millisecond).Msg("done")

	out := buf.String()
	if !strings.Contains(out, `"phase":"merge"`) || !strings.Contains(out, `"duration_ms":1500`) {
		t.Errorf("unexpected event: %s", out)
	}
}

func TestBatchComplete(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	BatchComplete(log, 7, time.Second).Msg("done")

	out := buf.String()
	if !strings.Contains(out, `"batch":7`) || !strings.Contains(out, `"event":"batch_completed"`) {
		t.Errorf("unexpected event: %s", out)
	}
}
