// landsat-distance-table - Earth-Sun distance reference file generator
//
// Writes the day-of-year → distance (AU) table read by landsat-calibrate
// -distance-table, computed from the VSOP87 solar theory for one year.
//
// Build: go build -ldflags="-s -w" -o build/landsat-distance-table ./cmd/landsat-distance-table

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/pberezina/LandsatPreprocessing/internal/solar"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

func write(w io.Writer, year int) error {
	bw := bufio.NewWriter(w)
	if _, err := solar.ComputeDistanceTable(year).WriteTo(bw); err != nil {
		return err
	}
	return bw.Flush()
}

func main() {
	year := flag.Int("year", time.Now().Year(), "Year to evaluate")
	out := flag.String("out", "-", "Output file (- for stdout)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "landsat-distance-table v%s - Earth-Sun Distance Table\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *out == "-" {
		if err := write(os.Stdout, *year); err != nil {
			log.Fatalf("Write error: %v", err)
		}
		return
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Create error: %v", err)
	}
	if err := write(f, *year); err != nil {
		f.Close()
		log.Fatalf("Write error: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Close error: %v", err)
	}
	log.Printf("Wrote %d days for %d to %s", solar.DaysInTable, *year, *out)
}
