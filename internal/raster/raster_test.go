package raster

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRef(w, h int) SpatialRef {
	return SpatialRef{
		GeoTransform: [6]float64{500000, 30, 0, 4200000, 0, -30},
		Projection:   `PROJCS["WGS 84 / UTM zone 10N"]`,
		Width:        w,
		Height:       h,
	}
}

func TestImageAccess(t *testing.T) {
	t.Parallel()

	img := NewImage(testRef(3, 2))
	assert.Len(t, img.Pix, 6)
	require.NoError(t, img.Check())

	img.Pix = img.Pix[:4]
	assert.Error(t, img.Check())

	assert.Error(t, SpatialRef{Width: 0, Height: 3}.Validate())
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	in := NewImage(testRef(2, 2))
	in.Pix[0] = 42
	s.Put("/scene/B1.TIF", in)

	got, err := s.Read("/scene/B1.TIF")
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.Pix[0])

	// Reads are copies
	got.Pix[0] = 0
	again, _ := s.Read("/scene/B1.TIF")
	assert.Equal(t, 42.0, again.Pix[0])

	_, err = s.Read("/scene/B2.TIF")
	assert.ErrorIs(t, err, ErrRasterRead)

	out := NewFloat32Image(testRef(2, 2))
	require.NoError(t, s.Write("/scene/B1_Rad.TIF", out))
	_, ok := s.Output("/scene/B1_Rad.TIF")
	assert.True(t, ok)
	assert.Equal(t, []string{"/scene/B1_Rad.TIF"}, s.Outputs())

	bad := &Float32Image{SpatialRef: testRef(2, 2), Pix: make([]float32, 3)}
	assert.ErrorIs(t, s.Write("/scene/bad.TIF", bad), ErrRasterWrite)
	assert.ErrorIs(t, s.Write("/scene/nil.TIF", nil), ErrRasterWrite)
}

func TestTilerCoversEveryPixelOnce(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{1, 3, 8, 1000} {
		ref := testRef(97, 131)
		counts := make([]int, ref.Len())
		var mu sync.Mutex
		var ranges [][2]int

		err := NewTiler(workers).Map(context.Background(), ref, func(start, end int) {
			mu.Lock()
			ranges = append(ranges, [2]int{start, end})
			mu.Unlock()
			for i := start; i < end; i++ {
				counts[i]++
			}
		})
		require.NoError(t, err)

		for i, c := range counts {
			require.Equal(t, 1, c, "workers=%d pixel %d", workers, i)
		}
		for _, r := range ranges {
			assert.Zero(t, r[0]%ref.Width, "strip must start on a row")
			assert.True(t, r[1] == ref.Len() || r[1]%ref.Width == 0, "strip must end on a row")
		}
	}
}

func TestTilerCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewTiler(4).Map(ctx, testRef(100, 100), func(start, end int) { called = true })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestTilerDefaults(t *testing.T) {
	t.Parallel()

	assert.Positive(t, NewTiler(0).numWorkers)
	assert.NoError(t, NewTiler(2).Map(context.Background(), SpatialRef{}, func(int, int) { t.Fatal("called") }))
}
