package calibrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pberezina/LandsatPreprocessing/internal/common"
	"github.com/pberezina/LandsatPreprocessing/internal/monitoring"
	"github.com/pberezina/LandsatPreprocessing/internal/raster"
	"github.com/pberezina/LandsatPreprocessing/internal/report"
)

// Output describes one written product.
type Output struct {
	Kind    ProductKind
	Path    string
	Summary report.Summary
}

// BandResult is the outcome of one band job. Err is nil on success.
type BandResult struct {
	Band    string
	Source  string
	Outputs []Output
	Err     error
	Elapsed time.Duration
}

// OK reports whether the band succeeded.
func (r BandResult) OK() bool {
	return r.Err == nil
}

// Engine runs a pipeline against one scene's bands.
type Engine struct {
	Store    raster.Store
	Pipeline Pipeline

	// Stats, when set, receives pixel, byte and band counters.
	Stats *common.Stats

	// OnProduct, when set, is called after each product is written. It may
	// be called concurrently for different bands.
	OnProduct func(band string, out Output, img *raster.Float32Image)
}

// CalibrateBand locates, reads, converts and writes one band. Products are
// written next to the source band. Failures are returned in the result.
func (e *Engine) CalibrateBand(ctx context.Context, scene *Scene, band string) BandResult {
	start := time.Now()
	res := BandResult{Band: band}
	res.Outputs, res.Source, res.Err = e.calibrate(ctx, scene, band)
	res.Elapsed = time.Since(start)

	if e.Stats != nil {
		e.Stats.BandDone(res.Elapsed, res.Err != nil)
	}
	if res.Err != nil {
		monitoring.Logf("[B%s] failed: %v", band, res.Err)
	} else {
		monitoring.Debugf("[B%s] %d product(s) in %v", band, len(res.Outputs), res.Elapsed.Round(time.Millisecond))
	}
	return res
}

func (e *Engine) calibrate(ctx context.Context, scene *Scene, band string) ([]Output, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if e.Pipeline.Sensor() != scene.Sensor {
		return nil, "", fmt.Errorf("%w: %v pipeline for %v scene", ErrUnknownSensor, e.Pipeline.Sensor(), scene.Sensor)
	}

	src, err := e.Pipeline.LocateBand(scene.Dir, band)
	if err != nil {
		return nil, "", err
	}

	coeffs, err := e.Pipeline.Coefficients(scene.Metadata, band)
	if err != nil {
		return nil, src, err
	}
	if got := coeffs.CoefficientBand(); got != band {
		return nil, src, fmt.Errorf("%w: band %s coefficients for band %s", ErrWrongCoefficients, got, band)
	}

	raw, err := e.Store.Read(src)
	if err != nil {
		return nil, src, err
	}
	if e.Stats != nil {
		if info, statErr := os.Stat(src); statErr == nil {
			e.Stats.AddBytes(uint64(info.Size()))
		}
	}

	products, err := e.Pipeline.Transform(ctx, raw, coeffs)
	if err != nil {
		return nil, src, err
	}

	outputs := make([]Output, 0, len(products))
	for _, p := range products {
		path := filepath.Join(scene.Dir, p.Name())
		if err := e.Store.Write(path, p.Image); err != nil {
			return outputs, src, err
		}

		out := Output{Kind: p.Kind, Path: path, Summary: report.Summarize(p.Image.Pix)}
		outputs = append(outputs, out)

		if e.Stats != nil {
			e.Stats.AddPixels(uint64(len(p.Image.Pix)))
		}
		if e.OnProduct != nil {
			e.OnProduct(band, out, p.Image)
		}
	}
	return outputs, src, nil
}

// Reports flattens the result into report rows: one per written product, or
// a single failed row.
func (r BandResult) Reports(runID, sceneID, sensor string, now time.Time) []report.BandReport {
	base := report.BandReport{
		RunID:     runID,
		SceneID:   sceneID,
		Sensor:    sensor,
		Band:      r.Band,
		ElapsedMs: float64(r.Elapsed.Microseconds()) / 1000,
		CreatedAt: now.UnixMilli(),
	}

	if r.Err != nil {
		row := base
		row.Status = report.StatusFailed
		row.Error = r.Err.Error()
		return []report.BandReport{row}
	}

	rows := make([]report.BandReport, 0, len(r.Outputs))
	for _, out := range r.Outputs {
		row := base
		row.Status = report.StatusOK
		row.Product = filepath.Base(out.Path)
		row.Path = out.Path
		out.Summary.Apply(&row)
		rows = append(rows, row)
	}
	return rows
}
