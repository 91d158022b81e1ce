package raster

import (
	"context"
	"runtime"
	"sync"
)

// =============================================================================
// Tiler - row-tiled parallel element-wise map
// =============================================================================

// minParallelPixels is the size below which tiling costs more than it saves.
const minParallelPixels = 4096

// Tiler splits a grid into horizontal strips of whole rows and runs a
// function over each strip on its own goroutine.
type Tiler struct {
	numWorkers int
}

// NewTiler creates a Tiler. numWorkers <= 0 selects runtime.NumCPU().
func NewTiler(numWorkers int) *Tiler {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Tiler{numWorkers: numWorkers}
}

// Map calls fn(start, end) over disjoint pixel index ranges that together
// cover [0, ref.Len()). Every range starts and ends on a row boundary.
// fn must only touch indices within its range. A cancelled context stops
// strips that have not started yet and is returned.
func (t *Tiler) Map(ctx context.Context, ref SpatialRef, fn func(start, end int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	total := ref.Len()
	if total == 0 {
		return nil
	}

	// Small grids run sequentially
	if total < minParallelPixels || t.numWorkers <= 1 || ref.Height < 2 {
		fn(0, total)
		return nil
	}

	rowsPerStrip := (ref.Height + t.numWorkers - 1) / t.numWorkers

	var wg sync.WaitGroup
	for workerID := 0; workerID < t.numWorkers; workerID++ {
		startRow := workerID * rowsPerStrip
		if startRow >= ref.Height {
			break
		}
		endRow := startRow + rowsPerStrip
		if endRow > ref.Height {
			endRow = ref.Height
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			fn(start, end)
		}(startRow*ref.Width, endRow*ref.Width)
	}

	wg.Wait()
	return ctx.Err()
}
