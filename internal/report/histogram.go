package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultBins is the histogram resolution for quicklooks.
const DefaultBins = 64

// WriteHistogram renders a PNG histogram of the valid pixels of a product.
// NaN and ±Inf are skipped; a product with no valid pixels is an error.
func WriteHistogram(path, title string, pix []float32, bins int) error {
	if bins <= 0 {
		bins = DefaultBins
	}

	values := make(plotter.Values, 0, len(pix))
	for _, v := range pix {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		values = append(values, f)
	}
	if len(values) == 0 {
		return fmt.Errorf("histogram %s: no valid pixels", title)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "value"
	p.Y.Label.Text = "pixels"

	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return fmt.Errorf("histogram %s: %w", title, err)
	}
	p.Add(h)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save histogram %s: %w", path, err)
	}
	return nil
}
