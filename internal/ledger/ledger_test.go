package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pberezina/LandsatPreprocessing/internal/report"
)

func openTest(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRunRoundTrip(t *testing.T) {
	t.Parallel()

	l := openTest(t)
	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	run, err := l.StartRun("LE70440342002188EDC00", "/data/scene", "Landsat7")
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, RunRunning, run.Status)

	rows := []report.BandReport{
		{RunID: run.ID, SceneID: "LE70440342002188EDC00", Sensor: "Landsat7", Band: "1",
			Product: "B1_Rad.TIF", Path: "/data/scene/B1_Rad.TIF", Status: report.StatusOK,
			Pixels: 64, NoData: 1, Min: -6.2, Max: 191.6, Mean: 80, StdDev: 3.5, ElapsedMs: 12.5,
			CreatedAt: clock.UnixMilli()},
		{RunID: run.ID, SceneID: "LE70440342002188EDC00", Sensor: "Landsat7", Band: "4",
			Status: report.StatusFailed, Error: "missing metadata key: LMAX_BAND4",
			CreatedAt: clock.UnixMilli()},
	}
	for _, r := range rows {
		require.NoError(t, l.RecordBand(r))
	}

	clock = clock.Add(time.Minute)
	require.NoError(t, l.FinishRun(run.ID, 1))

	got, err := l.Bands(run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("Bands mismatch (-want +got):\n%s", diff)
	}

	loaded, err := l.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, loaded.Status)
	assert.Equal(t, 1, loaded.BandsFailed)
	require.NotNil(t, loaded.FinishedAt)
	assert.Equal(t, clock, *loaded.FinishedAt)
	assert.Equal(t, run.StartedAt, loaded.StartedAt)
}

func TestLatestRun(t *testing.T) {
	t.Parallel()

	l := openTest(t)
	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	first, err := l.StartRun("S1", "/d", "Landsat8")
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	second, err := l.StartRun("S1", "/d", "Landsat8")
	require.NoError(t, err)
	require.NoError(t, l.FinishRun(second.ID, 0))

	latest, err := l.LatestRun("S1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.NotEqual(t, first.ID, latest.ID)
	assert.Equal(t, RunComplete, latest.Status)

	_, err = l.LatestRun("other")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestFinishUnknownRun(t *testing.T) {
	t.Parallel()

	l := openTest(t)
	assert.ErrorIs(t, l.FinishRun("nope", 0), ErrRunNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	require.NoError(t, err)
	run, err := l.StartRun("S2", "/d", "Landsat5")
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer l.Close()
	got, err := l.Run(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "S2", got.SceneID)
	assert.Nil(t, got.FinishedAt)
}
