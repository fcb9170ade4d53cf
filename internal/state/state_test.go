package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenolabs/nmrtab/internal/testutil"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store := New(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	store := New(nil)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Close())
}

func TestMigrateCreatesRuns(t *testing.T) {
	store := setupStore(t)

	rows, err := store.db.Query("SELECT 1 FROM runs LIMIT 1")
	require.NoError(t, err, "runs table should exist after migration")
	require.NoError(t, rows.Close())

	require.NoError(t, store.Migrate(), "migrations must be idempotent")
}

func TestRunLifecycle(t *testing.T) {
	store := setupStore(t)

	run, err := store.CreateRun("spcglyc", "/data/plate1", "duckdb")
	require.NoError(t, err)
	assert.Len(t, run.ID, 36, "run IDs are UUIDs")
	assert.Equal(t, StatusRunning, run.Status)
	assert.WithinDuration(t, time.Now().UTC(), run.StartedAt, time.Minute)
	assert.Nil(t, run.CompletedAt)

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "spcglyc", got.Mode)
	assert.Equal(t, "/data/plate1", got.Root)
	assert.Equal(t, "duckdb", got.Target)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Zero(t, got.Samples)

	require.NoError(t, store.CompleteRun(run.ID, StatusCompleted, 94, "covid19_run01_spcglyc", ""))

	got, err = store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 94, got.Samples)
	assert.Equal(t, "covid19_run01_spcglyc", got.BaseName)
	assert.Empty(t, got.Error)
	require.NotNil(t, got.CompletedAt)
	assert.WithinDuration(t, time.Now().UTC(), *got.CompletedAt, time.Minute)
}

func TestCompleteRunRecordsFailure(t *testing.T) {
	store := setupStore(t)

	run, err := store.CreateRun("spec", "/data/plate2", "duckdb")
	require.NoError(t, err)

	require.NoError(t, store.CompleteRun(run.ID, StatusFailed, 0, "", "no data read"))

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "no data read", got.Error)
}

func TestCompleteRunUnknownID(t *testing.T) {
	store := setupStore(t)

	err := store.CompleteRun("no-such-run", StatusCompleted, 0, "", "")
	assert.ErrorContains(t, err, "run not found")
}

func TestGetRunNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetRun("no-such-run")
	assert.ErrorContains(t, err, "run not found")
}

func TestGetLatestRun(t *testing.T) {
	store := setupStore(t)

	run, err := store.GetLatestRun()
	require.NoError(t, err)
	assert.Nil(t, run, "no runs yet")

	first, err := store.CreateRun("spec", "/data/a", "duckdb")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := store.CreateRun("brxlipo", "/data/b", "postgres")
	require.NoError(t, err)

	latest, err := store.GetLatestRun()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.NotEqual(t, first.ID, latest.ID)
}

func TestListRuns(t *testing.T) {
	store := setupStore(t)

	for _, root := range []string{"/data/a", "/data/b", "/data/c"} {
		_, err := store.CreateRun("spec", root, "duckdb")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "/data/c", runs[0].Root, "newest first")
	assert.Equal(t, "/data/b", runs[1].Root)

	runs, err = store.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	runs, err = store.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, runs, 3, "zero limit means no limit")
}

func TestOperationsWithoutOpen(t *testing.T) {
	store := New(nil)

	_, err := store.CreateRun("spec", "/data", "duckdb")
	assert.ErrorContains(t, err, "database not opened")

	_, err = store.GetLatestRun()
	assert.ErrorContains(t, err, "database not opened")

	assert.ErrorContains(t, store.Migrate(), "database not opened")
}
