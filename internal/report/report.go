// Package report summarizes calibrated products and persists per-band
// results as Parquet files, ClickHouse rows and histogram quicklooks.
package report

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Band status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// BandReport is one row per product written (or per failed band).
type BandReport struct {
	RunID     string  `parquet:"run_id" ch:"run_id"`
	SceneID   string  `parquet:"scene_id" ch:"scene_id"`
	Sensor    string  `parquet:"sensor" ch:"sensor"`
	Band      string  `parquet:"band" ch:"band"`
	Product   string  `parquet:"product" ch:"product"`
	Path      string  `parquet:"path" ch:"path"`
	Status    string  `parquet:"status" ch:"status"`
	Error     string  `parquet:"error" ch:"error"`
	Pixels    uint64  `parquet:"pixels" ch:"pixels"`
	NoData    uint64  `parquet:"nodata" ch:"nodata"`
	Min       float64 `parquet:"min" ch:"min"`
	Max       float64 `parquet:"max" ch:"max"`
	Mean      float64 `parquet:"mean" ch:"mean"`
	StdDev    float64 `parquet:"stddev" ch:"stddev"`
	ElapsedMs float64 `parquet:"elapsed_ms" ch:"elapsed_ms"`
	CreatedAt int64   `parquet:"created_at" ch:"created_at"` // unix milliseconds
}

// Created returns CreatedAt as a time.
func (r BandReport) Created() time.Time {
	return time.UnixMilli(r.CreatedAt).UTC()
}

// Summary describes the valid (non-NaN) pixels of a product.
type Summary struct {
	Pixels uint64
	NoData uint64
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize computes pixel statistics, skipping NaN and ±Inf. A product
// with no valid pixels reports zero statistics.
func Summarize(pix []float32) Summary {
	s := Summary{Pixels: uint64(len(pix))}

	valid := make([]float64, 0, len(pix))
	for _, v := range pix {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			s.NoData++
			continue
		}
		valid = append(valid, f)
	}
	if len(valid) == 0 {
		return s
	}

	s.Min = floats.Min(valid)
	s.Max = floats.Max(valid)
	if len(valid) == 1 {
		s.Mean = valid[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(valid, nil)
	return s
}

// Apply copies the statistics onto a report row.
func (s Summary) Apply(r *BandReport) {
	r.Pixels = s.Pixels
	r.NoData = s.NoData
	r.Min = s.Min
	r.Max = s.Max
	r.Mean = s.Mean
	r.StdDev = s.StdDev
}
