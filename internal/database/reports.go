package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/levelgen/internal/wfc"
)

// ErrReportNotFound is returned when no report has the requested run ID
var ErrReportNotFound = errors.New("report not found")

// ErrReportExists is returned when a run ID was already saved
var ErrReportExists = errors.New("report already saved")

// StoredReport is a saved report with its row id. Recorded steps are not
// persisted.
type StoredReport struct {
	ID int64
	wfc.Report
}

// LevelStats aggregates the saved reports of one level
type LevelStats struct {
	Level       string
	Runs        int
	Successes   int
	AvgAttempts float64
}

const reportColumns = `id, run_id, level, mode, seed, final_seed, width, height, attempts,
	success, reason, reasons, placement_failures, resolved, dead_ends, iterations,
	fingerprint, started_at, duration_ms`

// SaveReport stores a generation report and returns its row id
func (d *Database) SaveReport(ctx context.Context, r *wfc.Report) (int64, error) {
	reasons, err := encodeList(r.Reasons)
	if err != nil {
		return 0, err
	}
	failures, err := encodeList(r.PlacementFailures)
	if err != nil {
		return 0, err
	}

	success := 0
	if r.Success {
		success = 1
	}

	query := d.qb.BuildWithReturning(`
		INSERT INTO generation_reports (run_id, level, mode, seed, final_seed, width, height,
			attempts, success, reason, reasons, placement_failures, resolved, dead_ends,
			iterations, fingerprint, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, "id")
	args := []any{
		r.RunID, r.Level, string(r.Mode), r.Seed, r.FinalSeed, r.Width, r.Height,
		r.Attempts, success, r.Reason, reasons, failures, r.Resolved, r.DeadEnds,
		r.Iterations, r.Fingerprint, r.StartedAt.UnixMilli(), r.Duration.Milliseconds(),
	}

	var id int64
	if d.dialect.SupportsLastInsertID() {
		res, err := d.db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, d.insertError(err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, err
		}
	} else {
		if err := d.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, d.insertError(err)
		}
	}
	return id, nil
}

func (d *Database) insertError(err error) error {
	if d.dialect.IsDuplicateKeyError(err) {
		return ErrReportExists
	}
	return fmt.Errorf("failed to save report: %w", err)
}

// GetReport loads the report with the given run ID
func (d *Database) GetReport(ctx context.Context, runID string) (*StoredReport, error) {
	row := d.db.QueryRowContext(ctx,
		d.qb.Build(`SELECT `+reportColumns+` FROM generation_reports WHERE run_id = ?`), runID)

	sr, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return sr, nil
}

// RecentReports returns up to limit reports, newest first. An empty level
// matches every level.
func (d *Database) RecentReports(ctx context.Context, level string, limit int) ([]*StoredReport, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows *sql.Rows
	var err error
	if level == "" {
		rows, err = d.db.QueryContext(ctx, d.qb.Build(`
			SELECT `+reportColumns+` FROM generation_reports
			ORDER BY started_at DESC, id DESC LIMIT ?`), limit)
	} else {
		rows, err = d.db.QueryContext(ctx, d.qb.Build(`
			SELECT `+reportColumns+` FROM generation_reports
			WHERE level = ?
			ORDER BY started_at DESC, id DESC LIMIT ?`), level, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*StoredReport
	for rows.Next() {
		sr, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, sr)
	}
	return reports, rows.Err()
}

// Stats returns per-level aggregates ordered by level name
func (d *Database) Stats(ctx context.Context) ([]LevelStats, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT level, COUNT(*), SUM(success), AVG(attempts)
		FROM generation_reports
		GROUP BY level
		ORDER BY level`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []LevelStats
	for rows.Next() {
		var s LevelStats
		if err := rows.Scan(&s.Level, &s.Runs, &s.Successes, &s.AvgAttempts); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// DeleteReportsBefore removes reports started before t and returns how
// many were deleted
func (d *Database) DeleteReportsBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		d.qb.Build(`DELETE FROM generation_reports WHERE started_at < ?`), t.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*StoredReport, error) {
	var (
		sr                StoredReport
		mode              string
		success           int
		reasons, failures string
		startedAt, durMS  int64
	)
	err := row.Scan(&sr.ID, &sr.RunID, &sr.Level, &mode, &sr.Seed, &sr.FinalSeed,
		&sr.Width, &sr.Height, &sr.Attempts, &success, &sr.Reason, &reasons, &failures,
		&sr.Resolved, &sr.DeadEnds, &sr.Iterations, &sr.Fingerprint, &startedAt, &durMS)
	if err != nil {
		return nil, err
	}

	sr.Mode = wfc.Mode(mode)
	sr.Success = success != 0
	sr.StartedAt = time.UnixMilli(startedAt)
	sr.Duration = time.Duration(durMS) * time.Millisecond
	if sr.Reasons, err = decodeList(reasons); err != nil {
		return nil, err
	}
	if sr.PlacementFailures, err = decodeList(failures); err != nil {
		return nil, err
	}
	return &sr, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(s string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

// Reporter saves every generation report to the database
type Reporter struct {
	db *Database
}

// NewReporter creates a wfc.Reporter backed by db
func NewReporter(db *Database) *Reporter {
	return &Reporter{db: db}
}

// Report saves r
func (rp *Reporter) Report(ctx context.Context, r *wfc.Report) error {
	_, err := rp.db.SaveReport(ctx, r)
	return err
}
