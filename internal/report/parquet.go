package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// readChunk is the number of rows decoded per reader call.
const readChunk = 1000

// WriteParquet writes rows to path, creating parent directories.
func WriteParquet(path string, rows []BandReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}

// ReadParquet reads every row of a report file.
func ReadParquet(path string) ([]BandReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	reader := parquet.NewGenericReader[BandReport](pf)
	defer reader.Close()

	var out []BandReport
	buf := make([]BandReport, readChunk)
	for {
		n, err := reader.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read parquet %s: %w", path, err)
		}
		if n == 0 {
			break
		}
	}
	return out, nil
}

// ReportFileName is the per-run report file name.
func ReportFileName(sceneID, runID string) string {
	return fmt.Sprintf("%s_%s.parquet", sceneID, runID)
}

// FindParquet expands files and directories into .parquet paths.
func FindParquet(paths ...string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.parquet"))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	return out, nil
}
