package preview

import (
	"time"

	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

// Request types sent by clients
const (
	TypeLevels   = "levels"
	TypeGenerate = "generate"
)

// Response types sent by the server
const (
	TypeLevelList = "level_list"
	TypeLayout    = "layout"
	TypeError     = "error"
)

// Request is one client message
type Request struct {
	Type  string `json:"type"`
	Level string `json:"level,omitempty"`
	Seed  int64  `json:"seed,omitempty"`
}

// Response is one server message; only the fields for its type are set
type Response struct {
	Type   string         `json:"type"`
	Error  string         `json:"error,omitempty"`
	Levels []LevelInfo    `json:"levels,omitempty"`
	Layout *Layout        `json:"layout,omitempty"`
	Report *ReportSummary `json:"report,omitempty"`
}

// LevelInfo describes a level the server can generate
type LevelInfo struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Seed   int64  `json:"seed,omitempty"`
}

// Layout is a generated level rendered as glyph rows
type Layout struct {
	Level       string     `json:"level"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Rows        []string   `json:"rows"`
	Spawns      []Position `json:"spawns"`
	Start       *Position  `json:"start,omitempty"` // spawn claimed for the client
	Fingerprint string     `json:"fingerprint"`
}

// Position is a grid cell
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ReportSummary is the client-facing part of a generation report
type ReportSummary struct {
	RunID             string   `json:"run_id"`
	Seed              int64    `json:"seed"`
	FinalSeed         int64    `json:"final_seed"`
	Attempts          int      `json:"attempts"`
	Success           bool     `json:"success"`
	Reason            string   `json:"reason,omitempty"`
	PlacementFailures []string `json:"placement_failures,omitempty"`
	DeadEnds          int      `json:"dead_ends"`
	DurationMS        int64    `json:"duration_ms"`
}

func summarize(r *wfc.Report) *ReportSummary {
	if r == nil {
		return nil
	}
	return &ReportSummary{
		RunID:             r.RunID,
		Seed:              r.Seed,
		FinalSeed:         r.FinalSeed,
		Attempts:          r.Attempts,
		Success:           r.Success,
		Reason:            r.Reason,
		PlacementFailures: r.PlacementFailures,
		DeadEnds:          r.DeadEnds,
		DurationMS:        r.Duration.Milliseconds(),
	}
}

func errorResponse(msg string) Response {
	return Response{Type: TypeError, Error: msg}
}

// writeWait bounds a single response write
const writeWait = 10 * time.Second
