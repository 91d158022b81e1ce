package report

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	nan := float32(math.NaN())
	s := Summarize([]float32{nan, 1, 2, 3, 4, nan, float32(math.Inf(1))})

	assert.Equal(t, uint64(7), s.Pixels)
	assert.Equal(t, uint64(3), s.NoData)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdDev, 1e-12)
}

func TestSummarizeDegenerate(t *testing.T) {
	t.Parallel()

	empty := Summarize(nil)
	assert.Equal(t, Summary{}, empty)

	allNaN := Summarize([]float32{float32(math.NaN())})
	assert.Equal(t, uint64(1), allNaN.NoData)
	assert.Zero(t, allNaN.Mean)

	one := Summarize([]float32{5})
	assert.Equal(t, 5.0, one.Mean)
	assert.Zero(t, one.StdDev)
}

func TestSummaryApply(t *testing.T) {
	t.Parallel()

	var r BandReport
	Summary{Pixels: 10, NoData: 2, Min: -1, Max: 1, Mean: 0.5, StdDev: 0.1}.Apply(&r)
	assert.Equal(t, uint64(10), r.Pixels)
	assert.Equal(t, uint64(2), r.NoData)
	assert.Equal(t, 0.1, r.StdDev)
}

func sampleRows() []BandReport {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	return []BandReport{
		{
			RunID: "run-1", SceneID: "LE70440342002188EDC00", Sensor: "Landsat7", Band: "1",
			Product: "B1_Rad.TIF", Path: "/scene/B1_Rad.TIF", Status: StatusOK,
			Pixels: 100, NoData: 4, Min: -6.2, Max: 191.6, Mean: 60.1, StdDev: 12.3,
			ElapsedMs: 41.5, CreatedAt: created,
		},
		{
			RunID: "run-1", SceneID: "LE70440342002188EDC00", Sensor: "Landsat7", Band: "8",
			Status: StatusFailed, Error: "band file not found", CreatedAt: created,
		},
	}
}

func TestParquetRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports", ReportFileName("scene", "run-1"))
	rows := sampleRows()
	require.NoError(t, WriteParquet(path, rows))

	got, err := ReadParquet(path)
	require.NoError(t, err)
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("ReadParquet mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), got[0].Created())
}

func TestReadParquetMissing(t *testing.T) {
	t.Parallel()

	_, err := ReadParquet(filepath.Join(t.TempDir(), "missing.parquet"))
	assert.Error(t, err)
}

func TestFindParquet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, n := range []string{"a.parquet", "b.parquet", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
	single := filepath.Join(dir, "a.parquet")

	got, err := FindParquet(dir, single)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.parquet"),
		filepath.Join(dir, "b.parquet"),
		single,
	}, got)

	_, err = FindParquet(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestReportBatch(t *testing.T) {
	t.Parallel()

	b := NewReportBatch()
	for _, r := range sampleRows() {
		b.Add(r)
	}
	assert.Equal(t, 2, b.Len())
	assert.Len(t, b.Input(), 16)

	b.Reset()
	assert.Zero(t, b.Len())
}

func TestBlocks(t *testing.T) {
	t.Parallel()

	rows := make([]BandReport, 5)
	for i := range rows {
		rows[i].Band = strconv.Itoa(i + 1)
	}

	blocks := Blocks(rows, 2)
	require.Len(t, blocks, 3)
	assert.Len(t, blocks[0], 2)
	assert.Len(t, blocks[2], 1)
	assert.Equal(t, "5", blocks[2][0].Band)

	assert.Len(t, Blocks(rows, 0), 1)
	assert.Empty(t, Blocks(nil, 2))

	// One batch is reused across blocks.
	b := NewReportBatch()
	for _, block := range blocks {
		b.Reset()
		for _, r := range block {
			b.Add(r)
		}
		assert.Equal(t, len(block), b.Len())
	}
}

func TestInsertQuery(t *testing.T) {
	t.Parallel()

	q := InsertQuery("landsat.band_reports")
	assert.Contains(t, q, "INSERT INTO landsat.band_reports (run_id, scene_id, sensor")
	assert.Contains(t, q, "created_at) VALUES")
}

func TestWriteHistogram(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "quicklook", "B4_Refl.png")
	pix := make([]float32, 500)
	for i := range pix {
		pix[i] = float32(i%50) / 50
	}
	pix[0] = float32(math.NaN())

	require.NoError(t, WriteHistogram(path, "B4 reflectance", pix, 0))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	err = WriteHistogram(path, "empty", []float32{float32(math.NaN())}, 10)
	assert.Error(t, err)
}
