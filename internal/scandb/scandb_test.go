package scandb

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crysdata/crysanalyze/internal/xrd"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_MigratesSchema(t *testing.T) {
	db := openTestDB(t)

	// Both tables exist after migration.
	for _, table := range []string{"xrd_runs", "xrd_peaks"} {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening an already-migrated database must be a clean no-op.
	db, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestRunStore_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := NewRunStore(db)

	width := 0.142
	peaks := []xrd.Peak{
		{Position: 28.443, Intensity: 1520.5, FWHM: &width},
		{Position: 47.301, Intensity: 830.0},
	}
	run := &Run{
		SourceFile: "sample.xy",
		Wavelength: 1.54056,
		ParamsJSON: json.RawMessage(`{"bg_poly":3,"refine":true}`),
	}

	require.NoError(t, store.InsertRun(run, peaks))
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, 2, run.PeakCount)
	assert.NotZero(t, run.CreatedAtNs)

	got, err := store.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.SourceFile, got.SourceFile)
	assert.Equal(t, run.Wavelength, got.Wavelength)
	assert.JSONEq(t, string(run.ParamsJSON), string(got.ParamsJSON))

	gotPeaks, err := store.RunPeaks(run.RunID)
	require.NoError(t, err)
	require.Len(t, gotPeaks, 2)
	assert.Equal(t, 28.443, gotPeaks[0].Position)
	require.NotNil(t, gotPeaks[0].FWHM)
	assert.Equal(t, width, *gotPeaks[0].FWHM)
	assert.Nil(t, gotPeaks[1].FWHM)
}

func TestRunStore_ListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	store := NewRunStore(db)

	older := &Run{SourceFile: "a.xy", CreatedAtNs: 100}
	newer := &Run{SourceFile: "b.xy", CreatedAtNs: 200}
	require.NoError(t, store.InsertRun(older, nil))
	require.NoError(t, store.InsertRun(newer, nil))

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b.xy", runs[0].SourceFile)
	assert.Equal(t, "a.xy", runs[1].SourceFile)
}

func TestRunStore_GetRunMissing(t *testing.T) {
	db := openTestDB(t)
	store := NewRunStore(db)

	_, err := store.GetRun("no-such-run")
	require.Error(t, err)
}

func TestRunStore_EmptyPeakList(t *testing.T) {
	db := openTestDB(t)
	store := NewRunStore(db)

	run := &Run{SourceFile: "flat.xy"}
	require.NoError(t, store.InsertRun(run, []xrd.Peak{}))

	peaks, err := store.RunPeaks(run.RunID)
	require.NoError(t, err)
	assert.Empty(t, peaks)
}
