package bandfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandFromName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scheme Scheme
		name   string
		want   string
		ok     bool
	}{
		{SchemeTM, "LT05_L1TP_044034_20110716_B1.TIF", "1", true},
		{SchemeTM, "LT05_L1TP_044034_20110716_B6.tif", "6", true},
		{SchemeTM, "LT05_L1TP_044034_20110716_B7.TIF", "7", true},
		{SchemeTM, "LT05_L1TP_044034_20110716_MTL.txt", "", false},
		{SchemeTM, "B1_Rad.TIF", "", false},
		{SchemeTM, "B1_Refl.TIF", "", false},

		{SchemeETM, "L71044034_03420020707_B10.TIF", "1", true},
		{SchemeETM, "L71044034_03420020707_B40.TIF", "4", true},
		{SchemeETM, "L72044034_03420020707_B61.TIF", "61", true},
		{SchemeETM, "L72044034_03420020707_B62.TIF", "62", true},
		{SchemeETM, "L72044034_03420020707_B80.TIF", "8", true},
		{SchemeETM, "L71044034_03420020707_B6.TIF", "", false},
		{SchemeETM, "B61_Rad.TIF", "", false},

		{SchemeOLI, "LC08_L1TP_044034_20130419_B1.TIF", "1", true},
		{SchemeOLI, "LC08_L1TP_044034_20130419_B9.TIF", "9", true},
		{SchemeOLI, "LC08_L1TP_044034_20130419_B10.TIF", "10", true},
		{SchemeOLI, "LC08_L1TP_044034_20130419_B11.TIF", "11", true},
		{SchemeOLI, "LC08_L1TP_044034_20130419_BQA.TIF", "", false},
		{SchemeOLI, "LC08_L1TP_044034_20130419_B21.TIF", "", false},
		{SchemeOLI, "B10_Temp.TIF", "", false},
		{SchemeOLI, ".TIF", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.scheme.String()+"/"+tt.name, func(t *testing.T) {
			got, ok := BandFromName(tt.scheme, tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
}

func TestLocateLandsat8(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir,
		"LC08_X_B1.TIF", "LC08_X_B10.TIF", "LC08_X_B11.TIF",
		"LC08_X_MTL.txt", "B1_Refl.TIF", "B10_Temp.TIF",
	)

	tests := map[string]string{
		"1":  "LC08_X_B1.TIF",
		"10": "LC08_X_B10.TIF",
		"11": "LC08_X_B11.TIF",
	}
	for band, want := range tests {
		got, err := Locate(dir, SchemeOLI, band)
		require.NoError(t, err, band)
		assert.Equal(t, filepath.Join(dir, want), got)
	}

	_, err := Locate(dir, SchemeOLI, "4")
	assert.ErrorIs(t, err, ErrBandFileNotFound)
}

func TestLocateLandsat7Thermal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "L7_B10.TIF", "L7_B61.TIF", "L7_B62.TIF")

	got, err := Locate(dir, SchemeETM, "61")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "L7_B61.TIF"), got)

	_, err = Locate(dir, SchemeETM, "6")
	assert.ErrorIs(t, err, ErrBandFileNotFound)
}

func TestLocateAmbiguous(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "a_B3.TIF", "b_B3.tif")

	_, err := Locate(dir, SchemeTM, "3")
	require.ErrorIs(t, err, ErrBandFileNotFound)
	assert.Contains(t, err.Error(), "ambiguous")
	assert.Contains(t, err.Error(), "a_B3.TIF")
}

func TestLocateMissingDir(t *testing.T) {
	t.Parallel()

	_, err := Locate(filepath.Join(t.TempDir(), "missing"), SchemeTM, "1")
	assert.ErrorIs(t, err, ErrBandFileNotFound)
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir,
		"S_B11.TIF", "S_B2.TIF", "S_B10.TIF", "S_B1.TIF", "S_B9.TIF",
		"B2_Refl.TIF", "S_BQA.TIF", "S_MTL.txt",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "S_B5.TIF"), 0o755))

	got, err := Discover(dir, SchemeOLI)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"1", "2", "9", "10", "11"}, got); diff != "" {
		t.Errorf("Discover mismatch (-want +got):\n%s", diff)
	}
}

func TestSortBands(t *testing.T) {
	t.Parallel()

	bands := []string{"62", "8", "61", "1"}
	SortBands(bands)
	assert.Equal(t, []string{"1", "8", "61", "62"}, bands)
}
