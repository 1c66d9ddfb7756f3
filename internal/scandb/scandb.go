// Package scandb archives analysis runs and their peaks in a local SQLite
// database so past analyses can be listed, re-reported, and served over
// HTTP.
package scandb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/crysdata/crysanalyze/internal/xrd"
)

// DB wraps the SQLite connection. Opening runs all pending schema
// migrations.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the archive database at path and
// migrates the schema to the latest version. Use ":memory:" for an
// ephemeral database.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.migrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Run is one archived analysis invocation.
type Run struct {
	RunID       string          `json:"run_id"`
	SourceFile  string          `json:"source_file"`
	Wavelength  float64         `json:"wavelength"`
	ParamsJSON  json.RawMessage `json:"params_json,omitempty"`
	PeakCount   int             `json:"peak_count"`
	CreatedAtNs int64           `json:"created_at_ns"`
}

// RunStore provides persistence for analysis runs.
type RunStore struct {
	db *DB
}

// NewRunStore creates a RunStore backed by the given database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// InsertRun records a run and its peaks in one transaction. If run.RunID is
// empty a new UUID is generated.
func (s *RunStore) InsertRun(run *Run, peaks []xrd.Peak) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAtNs == 0 {
		run.CreatedAtNs = time.Now().UnixNano()
	}
	run.PeakCount = len(peaks)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO xrd_runs (run_id, source_file, wavelength, params_json, peak_count, created_at_ns)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.SourceFile,
		run.Wavelength,
		nullString(string(run.ParamsJSON)),
		run.PeakCount,
		run.CreatedAtNs,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, p := range peaks {
		_, err = tx.Exec(`
			INSERT INTO xrd_peaks (run_id, ordinal, position, intensity, fwhm)
			VALUES (?, ?, ?, ?, ?)`,
			run.RunID, i, p.Position, p.Intensity, nullFloat64(p.FWHM),
		)
		if err != nil {
			return fmt.Errorf("insert peak %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns sql.ErrNoRows when absent.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	var run Run
	var params sql.NullString
	err := s.db.QueryRow(`
		SELECT run_id, source_file, wavelength, params_json, peak_count, created_at_ns
		FROM xrd_runs WHERE run_id = ?`, runID).Scan(
		&run.RunID, &run.SourceFile, &run.Wavelength, &params, &run.PeakCount, &run.CreatedAtNs,
	)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	if params.Valid {
		run.ParamsJSON = json.RawMessage(params.String)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT run_id, source_file, wavelength, params_json, peak_count, created_at_ns
		FROM xrd_runs ORDER BY created_at_ns DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var params sql.NullString
		if err := rows.Scan(&run.RunID, &run.SourceFile, &run.Wavelength, &params, &run.PeakCount, &run.CreatedAtNs); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		if params.Valid {
			run.ParamsJSON = json.RawMessage(params.String)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunPeaks returns the peaks of a run in detection order.
func (s *RunStore) RunPeaks(runID string) ([]xrd.Peak, error) {
	rows, err := s.db.Query(`
		SELECT position, intensity, fwhm FROM xrd_peaks
		WHERE run_id = ? ORDER BY ordinal`, runID)
	if err != nil {
		return nil, fmt.Errorf("list peaks for run %s: %w", runID, err)
	}
	defer rows.Close()

	var peaks []xrd.Peak
	for rows.Next() {
		var p xrd.Peak
		var fwhm sql.NullFloat64
		if err := rows.Scan(&p.Position, &p.Intensity, &fwhm); err != nil {
			return nil, fmt.Errorf("scan peak row: %w", err)
		}
		if fwhm.Valid {
			v := fwhm.Float64
			p.FWHM = &v
		}
		peaks = append(peaks, p)
	}
	return peaks, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
