package wfc

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lawnchairsociety/levelgen/internal/logger"
)

// Report summarizes one Generate call across all of its attempts
type Report struct {
	RunID     string
	Level     string
	Mode      Mode
	Seed      int64 // seed of the first attempt
	FinalSeed int64 // seed of the last attempt
	Width     int
	Height    int

	Attempts int
	Success  bool
	Reason   string   // first validator issue of the last failed attempt
	Reasons  []string // one entry per failed attempt

	PlacementFailures []string // tile IDs skipped during fixed placement
	Resolved          int
	DeadEnds          int
	Iterations        int
	Steps             []Step // recorded only when Options.RecordSteps is set

	Fingerprint string
	StartedAt   time.Time
	Duration    time.Duration
}

func newReport(desc *Descriptor, mode Mode, seed int64) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Level:     desc.Name,
		Mode:      mode,
		Seed:      seed,
		FinalSeed: seed,
		Width:     desc.Width,
		Height:    desc.Height,
		StartedAt: time.Now(),
	}
}

// resetAttempt clears per-attempt counters before a retry
func (r *Report) resetAttempt(seed int64) {
	r.FinalSeed = seed
	r.PlacementFailures = nil
	r.Resolved = 0
	r.DeadEnds = 0
	r.Iterations = 0
	r.Steps = nil
	r.Fingerprint = ""
}

// Summary returns a one-line description of the outcome
func (r *Report) Summary() string {
	var sb strings.Builder
	sb.WriteString(r.Level)
	if r.Success {
		sb.WriteString(": generated")
	} else {
		sb.WriteString(": failed")
	}
	if r.Reason != "" && !r.Success {
		sb.WriteString(" (")
		sb.WriteString(r.Reason)
		sb.WriteString(")")
	}
	return sb.String()
}

// LogReporter writes reports to the package logger at report level
type LogReporter struct{}

// Report logs r. It never fails.
func (LogReporter) Report(_ context.Context, r *Report) error {
	logger.Report(r.Summary(),
		"run_id", r.RunID,
		"level", r.Level,
		"mode", string(r.Mode),
		"seed", r.Seed,
		"final_seed", r.FinalSeed,
		"attempts", r.Attempts,
		"success", r.Success,
		"placement_failures", len(r.PlacementFailures),
		"dead_ends", r.DeadEnds,
		"fingerprint", r.Fingerprint,
		"duration", r.Duration,
	)
	return nil
}
