package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSampleMTL(t *testing.T) {
	scene, err := LoadFile(filepath.Join("testdata", "LE07_L1TP_sample_MTL.txt"))
	require.NoError(t, err)

	t.Run("quoted strings are unquoted text", func(t *testing.T) {
		v, err := scene.Get("SPACECRAFT_ID")
		require.NoError(t, err)
		assert.Equal(t, Text, v.Kind())
		assert.Equal(t, "LANDSAT_7", v.String())
	})

	t.Run("numbers are typed", func(t *testing.T) {
		lmin, err := scene.Number("LMIN_BAND1")
		require.NoError(t, err)
		assert.Equal(t, -6.2, lmin)

		qmax, err := scene.Number("QCALMAX_BAND61")
		require.NoError(t, err)
		assert.Equal(t, 255.0, qmax)
	})

	t.Run("unquoted non-numeric value stays text", func(t *testing.T) {
		v, err := scene.Get("ACQUISITION_DATE")
		require.NoError(t, err)
		assert.False(t, v.IsNumber())
		assert.Equal(t, "2002-07-07", v.String())
	})

	t.Run("group delimiters are not parameters", func(t *testing.T) {
		for _, k := range []string{"GROUP", "END_GROUP", "END"} {
			_, err := scene.Get(k)
			assert.ErrorIs(t, err, ErrMissingKey, k)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := scene.Number("LMAX_BAND8")
		assert.ErrorIs(t, err, ErrMissingKey)
		assert.Contains(t, err.Error(), "LMAX_BAND8")
	})

	t.Run("text where a number is required", func(t *testing.T) {
		_, err := scene.Number("SENSOR_ID")
		assert.ErrorIs(t, err, ErrNotNumber)
	})

	t.Run("well-known helpers", func(t *testing.T) {
		date, err := scene.AcquisitionDate()
		require.NoError(t, err)
		assert.Equal(t, "2002-07-07", date)

		elev, err := scene.SunElevation()
		require.NoError(t, err)
		assert.InDelta(t, 64.1862534, elev, 1e-12)

		assert.Equal(t, "LE70420342002188EDC00", scene.SceneID())
	})

	assert.Equal(t, 16, scene.Len())
	assert.True(t, strings.HasSuffix(scene.Source(), "LE07_L1TP_sample_MTL.txt"))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"line without separator", "GROUP = X\nNOT A PAIR\nEND\n"},
		{"empty parameter name", " = 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), "inline")
			assert.ErrorIs(t, err, ErrMetadataParse)
		})
	}
}

func TestParseCollection2RepeatedKeys(t *testing.T) {
	const mtl = `GROUP = LANDSAT_METADATA_FILE
  GROUP = PRODUCT_CONTENTS
    ORIGIN = "Image courtesy of the U.S. Geological Survey"
    LANDSAT_PRODUCT_ID = "LC08_L1TP_042034_20201231_20210308_02_T1"
    PROCESSING_LEVEL = "L1TP"
  END_GROUP = PRODUCT_CONTENTS
  GROUP = IMAGE_ATTRIBUTES
    SPACECRAFT_ID = "LANDSAT_8"
    DATE_ACQUIRED = 2020-12-31
    SUN_ELEVATION = 24.12345678
  END_GROUP = IMAGE_ATTRIBUTES
  GROUP = LEVEL1_PROCESSING_RECORD
    ORIGIN = "Image courtesy of the U.S. Geological Survey"
    LANDSAT_PRODUCT_ID = "LC08_L1TP_042034_20201231_20210308_02_T1_reprocessed"
    PROCESSING_LEVEL = "L1TP"
  END_GROUP = LEVEL1_PROCESSING_RECORD
END_GROUP = LANDSAT_METADATA_FILE
END
`
	scene, err := Parse(strings.NewReader(mtl), "LC08_MTL.txt")
	require.NoError(t, err)

	assert.Equal(t, 6, scene.Len())

	id, err := scene.Text("LANDSAT_PRODUCT_ID")
	require.NoError(t, err)
	assert.Equal(t, "LC08_L1TP_042034_20201231_20210308_02_T1", id)

	date, err := scene.AcquisitionDate()
	require.NoError(t, err)
	assert.Equal(t, "2020-12-31", date)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, NumberValue(0.1), Value{kind: Number, num: 0.1, text: "0.1"})

	v := ParseValue(` "2.0000E-05" `)
	f, ok := v.Float()
	require.True(t, ok)
	assert.Equal(t, 2e-05, f)
	assert.Equal(t, "2.0000E-05", v.String())

	v = ParseValue(`"L1TP"`)
	assert.Equal(t, TextValue("L1TP"), v)
}

func TestDateAcquiredFallback(t *testing.T) {
	scene, err := Parse(strings.NewReader("DATE_ACQUIRED = 2020-12-31\n"), "LC08_X_MTL.txt")
	require.NoError(t, err)

	date, err := scene.AcquisitionDate()
	require.NoError(t, err)
	assert.Equal(t, "2020-12-31", date)
	assert.Equal(t, "LC08_X", scene.SceneID())

	empty := NewScene("none", nil)
	_, err = empty.AcquisitionDate()
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestLoadDirectory(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.ErrorIs(t, err, ErrMetadataNotFound)
	})

	t.Run("unreadable directory", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, ErrMetadataNotFound)
	})

	t.Run("first match wins", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "B_MTL.txt"), []byte("X = 2\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "A_MTL.txt"), []byte("X = 1\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "A_B1.TIF"), nil, 0o644))

		scene, err := Load(dir)
		require.NoError(t, err)
		x, err := scene.Number("X")
		require.NoError(t, err)
		assert.Equal(t, 1.0, x)
	})

	t.Run("parse failure surfaces", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "S_MTL.txt"), []byte("garbage\n"), 0o644))
		_, err := Load(dir)
		assert.ErrorIs(t, err, ErrMetadataParse)
	})
}

func TestKeysSorted(t *testing.T) {
	scene := NewScene("x", map[string]Value{"B": NumberValue(2), "A": TextValue("a")})
	assert.Equal(t, []string{"A", "B"}, scene.Keys())
}
