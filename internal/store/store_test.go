package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indecstat/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(DriverSQLite, filepath.Join(t.TempDir(), "data", "indec.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ipcBatch(rows ...[]any) Batch {
	return Batch{
		Table:       "ipc_components",
		Columns:     []string{"date", "period_label", "component_code", "component_name", "category_type", "region", "index_value", "source_file"},
		ConflictKey: []string{"date", "component_code", "region", "category_type"},
		Rows:        rows,
	}
}

func TestUpsert_IdempotentByNaturalKey(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	b := ipcBatch(
		[]any{"2024-01-01", "2024-01", "NIVEL_GENERAL", "Nivel general", "GENERAL", "Nacional", 100.0, "a.xls"},
		[]any{"2024-01-01", "2024-01", "NIVEL_GENERAL", "Nivel general", "GENERAL", "GBA", 101.0, "a.xls"},
	)
	n, err := s.Upsert(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	b.Rows[0][6] = 100.5
	b.Rows[0][7] = "b.xls"
	_, err = s.Upsert(ctx, b)
	require.NoError(t, err)

	rows, err := s.ListIPC(ctx, model.SeriesFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	nacional, err := s.ListIPC(ctx, model.SeriesFilter{Region: "Nacional", Code: "NIVEL_GENERAL"})
	require.NoError(t, err)
	require.Len(t, nacional, 1)
	require.NotNil(t, nacional[0].IndexValue)
	assert.Equal(t, 100.5, *nacional[0].IndexValue)
	assert.Equal(t, "b.xls", nacional[0].SourceFile)
}

func TestUpsert_DuplicateKeysInBatchLastWins(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.Upsert(ctx, Batch{
		Table:       "emae",
		Columns:     []string{"date", "original_value", "seasonally_adjusted_value", "cycle_trend_value", "is_seasonally_adjusted", "source_file"},
		ConflictKey: []string{"date"},
		Rows: [][]any{
			{"2024-01-01", 140.0, nil, nil, false, "x.xls"},
			{"2024-02-01", 141.0, 142.0, 141.5, true, "x.xls"},
			{"2024-01-01", 139.0, 140.2, nil, true, "x.xls"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := s.ListEMAE(ctx, model.SeriesFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-01-01", rows[0].Date)
	assert.Equal(t, 139.0, *rows[0].OriginalValue)
	assert.Equal(t, 140.2, *rows[0].SeasonallyAdjustedValue)
	assert.Nil(t, rows[0].CycleTrendValue)
	assert.True(t, rows[0].IsSeasonallyAdjusted)

	later, err := s.ListEMAE(ctx, model.SeriesFilter{From: "2024-02-01"})
	require.NoError(t, err)
	assert.Len(t, later, 1)
}

func TestUpsert_RejectsInvalidBatch(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	cases := []Batch{
		{Table: "emae; DROP TABLE emae", Columns: []string{"date"}, ConflictKey: []string{"date"}},
		{Table: "emae", Columns: []string{"date"}, ConflictKey: []string{"id"}},
		{Table: "emae", Columns: []string{"date", "original_value"}, ConflictKey: []string{"date"}, Rows: [][]any{{"2024-01-01"}}},
		{Table: "emae", Columns: []string{"date"}},
	}
	for i, b := range cases {
		_, err := s.Upsert(ctx, b)
		assert.Error(t, err, "case %d", i)
	}
}

func TestUpsertSQL(t *testing.T) {
	t.Parallel()

	b := Batch{Table: "emae", Columns: []string{"date", "original_value"}, ConflictKey: []string{"date"}}
	assert.Equal(t,
		"INSERT INTO emae (date, original_value) VALUES (?, ?) ON CONFLICT (date) DO UPDATE SET original_value = excluded.original_value, updated_at = CURRENT_TIMESTAMP",
		b.upsertSQL())

	pg := &Store{driver: DriverPostgres}
	assert.Equal(t,
		"INSERT INTO emae (date, original_value) VALUES ($1, $2) ON CONFLICT (date) DO UPDATE SET original_value = excluded.original_value, updated_at = CURRENT_TIMESTAMP",
		pg.rebind(b.upsertSQL()))

	keysOnly := Batch{Table: "emae", Columns: []string{"date"}, ConflictKey: []string{"date"}}
	assert.Contains(t, keysOnly.upsertSQL(), "DO NOTHING")
}

func TestImportLogs(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateImportLog(ctx, "run-1", "ipc", started))
	require.NoError(t, s.CreateImportLog(ctx, "run-2", "emae", started.Add(time.Hour)))
	require.NoError(t, s.FinishImportLog(ctx, model.RunReport{
		RunID:     "run-1",
		Indicator: "ipc",
		Status:    model.RunPartial,
		Records:   10,
		Upserted:  10,
		Sources:   []model.SourceResult{{Source: "ipc", Status: "imported", Records: 10}},
		Errors:    []string{"region block missing"},
		StartedAt: started,
		Duration:  2 * time.Second,
	}))

	logs, err := s.ListImportLogs(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "run-2", logs[0].RunID)
	assert.Equal(t, "processing", logs[0].Status)
	assert.Nil(t, logs[0].CompletedAt)

	ipc, err := s.ListImportLogs(ctx, "ipc", 10)
	require.NoError(t, err)
	require.Len(t, ipc, 1)
	assert.Equal(t, "partial", ipc[0].Status)
	assert.Equal(t, int64(2000), ipc[0].DurationMs)
	assert.Equal(t, "region block missing", ipc[0].ErrorMessage)
	assert.Contains(t, ipc[0].Sources, `"source":"ipc"`)
	require.NotNil(t, ipc[0].CompletedAt)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := New("mysql", "x")
	require.Error(t, err)
}
