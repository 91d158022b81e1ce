package calibrate

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/pberezina/LandsatPreprocessing/internal/bandfile"
	"github.com/pberezina/LandsatPreprocessing/internal/metadata"
	"github.com/pberezina/LandsatPreprocessing/internal/monitoring"
)

// Scene is an opened scene directory.
type Scene struct {
	Dir      string
	Metadata *metadata.Scene
	Sensor   Sensor
}

// OpenScene loads the scene metadata. The sensor comes from SPACECRAFT_ID
// unless override is set. A metadata failure is fatal for the scene.
func OpenScene(dir string, override Sensor) (*Scene, error) {
	md, err := metadata.Load(dir)
	if err != nil {
		return nil, err
	}

	sensor := override
	if sensor == SensorUnknown {
		id, err := md.SpacecraftID()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot detect sensor: %v", ErrUnknownSensor, err)
		}
		if sensor, err = SensorFromSpacecraft(id); err != nil {
			return nil, err
		}
	}

	return &Scene{Dir: dir, Metadata: md, Sensor: sensor}, nil
}

// ID returns the scene identifier.
func (s *Scene) ID() string {
	return s.Metadata.SceneID()
}

// Bands lists the band files present in the scene directory.
func (s *Scene) Bands() ([]string, error) {
	return bandfile.Discover(s.Dir, s.Sensor.Scheme())
}

// RunScene calibrates bands concurrently, at most concurrency at a time.
// A failing band never stops the others. Results are sorted by band.
func RunScene(ctx context.Context, engine *Engine, scene *Scene, bands []string, concurrency int) []BandResult {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]BandResult, len(bands))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, band := range bands {
		select {
		case <-ctx.Done():
			results[i] = BandResult{Band: band, Err: ctx.Err()}
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, band string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = engine.CalibrateBand(ctx, scene, band)
		}(i, band)
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return bandLess(results[i].Band, results[j].Band)
	})

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	monitoring.Logf("[%s] %d band(s), %d failed", scene.ID(), len(results), failed)
	return results
}

func bandLess(a, b string) bool {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return x < y
}
