// landsat-calibrate - Landsat 5/7/8 DN → top-of-atmosphere calibration
//
// Converts every band of a scene folder (or scene bundle) into:
//   - Landsat 5/7: B<n>_Rad.TIF radiance, then B<n>_Refl.TIF reflectance
//   - Landsat 8:   B<n>_Refl.TIF reflectance (1-9), B<n>_Temp.TIF °C (10, 11)
//
// Outputs are single-band float32 GeoTIFFs written next to the inputs.
// Per-band results go to a Parquet report, and optionally to a SQLite
// ledger and ClickHouse.
//
// Build: go build -ldflags="-s -w" -o build/landsat-calibrate ./cmd/landsat-calibrate

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pberezina/LandsatPreprocessing/internal/archive"
	"github.com/pberezina/LandsatPreprocessing/internal/bandfile"
	"github.com/pberezina/LandsatPreprocessing/internal/calibrate"
	"github.com/pberezina/LandsatPreprocessing/internal/common"
	"github.com/pberezina/LandsatPreprocessing/internal/esun"
	"github.com/pberezina/LandsatPreprocessing/internal/ledger"
	"github.com/pberezina/LandsatPreprocessing/internal/metadata"
	"github.com/pberezina/LandsatPreprocessing/internal/monitoring"
	"github.com/pberezina/LandsatPreprocessing/internal/raster"
	"github.com/pberezina/LandsatPreprocessing/internal/raster/geotiff"
	"github.com/pberezina/LandsatPreprocessing/internal/report"
	"github.com/pberezina/LandsatPreprocessing/internal/solar"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

// =============================================================================
// Input helpers
// =============================================================================

// promptFolder asks for the scene folder on in.
func promptFolder(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Folder: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	folder := strings.TrimSpace(line)
	if folder == "" {
		return "", errors.New("no folder given")
	}
	return folder, nil
}

// parseBands splits a comma-separated band list. Empty means discover.
func parseBands(list string) []string {
	var bands []string
	for _, b := range strings.Split(list, ",") {
		b = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(b)), "B")
		if b != "" {
			bands = append(bands, b)
		}
	}
	bandfile.SortBands(bands)
	return bands
}

// locateMetadataDir returns dir, or its single subdirectory holding the MTL
// file when a bundle unpacks into a nested folder.
func locateMetadataDir(dir string) (string, error) {
	if _, err := metadata.FindFile(dir); err == nil {
		return dir, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var found []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if _, err := metadata.FindFile(sub); err == nil {
			found = append(found, sub)
		}
	}
	if len(found) == 1 {
		return found[0], nil
	}
	return dir, nil
}

// resolveScene turns the argument into a scene directory, extracting
// bundles first.
func resolveScene(ctx context.Context, arg, extractDir string, workers int) (string, error) {
	info, err := os.Stat(arg)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return arg, nil
	}
	if !archive.IsArchive(arg) {
		return "", fmt.Errorf("%s is neither a directory nor a scene bundle", arg)
	}

	dest := extractDir
	if dest == "" {
		dest = archive.SceneDir(arg)
	}
	log.Printf("[%s] Extracting to %s...", filepath.Base(arg), dest)
	files, err := archive.Extract(ctx, arg, dest, workers)
	if err != nil {
		return "", err
	}
	log.Printf("[%s] %d file(s) extracted", filepath.Base(arg), len(files))
	return locateMetadataDir(dest)
}

// =============================================================================
// Result sinks
// =============================================================================

func publish(ctx context.Context, rows []report.BandReport, reportPath string, lg *ledger.Ledger, chHost, chDB, chTable string) {
	if reportPath != "" {
		if err := report.WriteParquet(reportPath, rows); err != nil {
			log.Printf("Report write error: %v", err)
		} else {
			log.Printf("Report: %s (%d rows)", reportPath, len(rows))
		}
	}

	if lg != nil {
		for _, r := range rows {
			if err := lg.RecordBand(r); err != nil {
				log.Printf("Ledger error: %v", err)
			}
		}
	}

	if chHost != "" {
		sink, err := report.DialClickHouse(ctx, chHost, chDB, chTable)
		if err != nil {
			log.Printf("ClickHouse error: %v", err)
			return
		}
		defer sink.Close()
		if err := sink.EnsureTable(ctx); err != nil {
			log.Printf("ClickHouse table warning: %v", err)
		}
		if err := sink.Insert(ctx, rows); err != nil {
			log.Printf("ClickHouse insert error: %v", err)
			return
		}
		log.Printf("ClickHouse: %d rows → %s", len(rows), sink.Table())
	}
}

func printResults(results []calibrate.BandResult) int {
	failed := 0
	log.Println("=========================================================")
	log.Println("Band Results")
	log.Println("=========================================================")
	for _, r := range results {
		if r.Err != nil {
			failed++
			log.Printf("  B%-3s FAILED  %v", r.Band, r.Err)
			continue
		}
		names := make([]string, len(r.Outputs))
		for i, o := range r.Outputs {
			names[i] = filepath.Base(o.Path)
		}
		log.Printf("  B%-3s OK      %s (%v)", r.Band, strings.Join(names, ", "), r.Elapsed.Round(time.Millisecond))
	}
	return failed
}

func main() {
	cfg := common.DefaultConfig()

	sensorName := flag.String("sensor", "", "Sensor: 5, 7 or 8 (default: from SPACECRAFT_ID)")
	bandList := flag.String("bands", "", "Comma-separated bands (default: all band files found)")
	standard := flag.String("standard", cfg.ESUNStandard, "ESUN standard for Landsat 5/7 reflectance")
	distanceTable := flag.String("distance-table", cfg.DistanceTablePath, "Earth-Sun distance file (default: embedded)")
	workers := flag.Int("workers", cfg.Workers, "Concurrent band jobs")
	tileWorkers := flag.Int("tile-workers", cfg.TileWorkers, "Goroutines per band transform")
	reportDir := flag.String("report-dir", cfg.ReportDir(), "Parquet report directory (empty disables)")
	quicklook := flag.Bool("quicklook", false, "Write PNG histograms of every product")
	ledgerPath := flag.String("ledger", cfg.LedgerPath, "SQLite ledger path (empty disables)")
	extractDir := flag.String("extract-dir", "", "Extraction directory for scene bundles")
	chHost := flag.String("ch-host", cfg.ClickHouseHost, "ClickHouse address (empty disables)")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", cfg.ClickHouseTable, "ClickHouse table")
	quiet := flag.Bool("quiet", false, "Disable progress output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "landsat-calibrate v%s - Landsat TOA Calibration\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [scene-dir | scene.tar.gz]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Without an argument the scene folder is read from stdin.\n\n")
		fmt.Fprintf(os.Stderr, "ESUN standards:\n")
		for _, s := range esun.Standards() {
			fmt.Fprintf(os.Stderr, "  - %s\n", s)
		}
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	flag.Parse()
	monitoring.SetLevel(cfg.LogLevel)

	arg := flag.Arg(0)
	if arg == "" {
		folder, err := promptFolder(os.Stdin, os.Stdout)
		if err != nil {
			log.Fatalf("Folder: %v", err)
		}
		arg = folder
	}

	log.Println("=========================================================")
	log.Printf("Landsat Calibrate v%s", Version)
	log.Println("=========================================================")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nShutdown requested...")
		cancel()
	}()

	sceneDir, err := resolveScene(ctx, arg, *extractDir, *tileWorkers)
	if err != nil {
		log.Fatalf("Scene: %v", err)
	}

	override := calibrate.SensorUnknown
	if *sensorName != "" {
		if override, err = calibrate.ParseSensor(*sensorName); err != nil {
			log.Fatalf("Sensor: %v", err)
		}
	}

	// Metadata failure is fatal for the scene
	scene, err := calibrate.OpenScene(sceneDir, override)
	if err != nil {
		log.Fatalf("Metadata: %v", err)
	}
	sceneID := scene.ID()

	distances, err := solar.LoadDistanceTable(*distanceTable)
	if err != nil {
		log.Fatalf("Distance table: %v", err)
	}

	pipeline, err := calibrate.NewPipeline(scene.Sensor, calibrate.Options{
		Standard:    esun.Standard(*standard),
		Distances:   distances,
		TileWorkers: *tileWorkers,
	})
	if err != nil {
		log.Fatalf("Pipeline: %v", err)
	}

	bands := parseBands(*bandList)
	if len(bands) == 0 {
		if bands, err = scene.Bands(); err != nil {
			log.Fatalf("Band discovery: %v", err)
		}
	}
	if len(bands) == 0 {
		log.Fatalf("No %v band files in %s", scene.Sensor, sceneDir)
	}

	log.Printf("Scene:   %s", sceneID)
	log.Printf("Folder:  %s", sceneDir)
	log.Printf("Sensor:  %v", scene.Sensor)
	log.Printf("Bands:   %s", strings.Join(bands, ", "))
	log.Printf("Workers: %d bands x %d tiles", *workers, *tileWorkers)

	var lg *ledger.Ledger
	runID := fmt.Sprintf("%s-%d", sceneID, time.Now().Unix())
	if *ledgerPath != "" {
		if lg, err = ledger.Open(*ledgerPath); err != nil {
			log.Fatalf("Ledger: %v", err)
		}
		defer lg.Close()
		run, err := lg.StartRun(sceneID, sceneDir, scene.Sensor.String())
		if err != nil {
			log.Fatalf("Ledger: %v", err)
		}
		runID = run.ID
	}

	stats := common.NewStats()
	stats.SetSilent(*quiet)

	engine := &calibrate.Engine{
		Store:    geotiff.New("COMPRESS=DEFLATE"),
		Pipeline: pipeline,
		Stats:    stats,
	}
	if *quicklook {
		qlDir := filepath.Join(sceneDir, "quicklook")
		engine.OnProduct = func(band string, out calibrate.Output, img *raster.Float32Image) {
			name := strings.TrimSuffix(filepath.Base(out.Path), filepath.Ext(out.Path))
			path := filepath.Join(qlDir, name+".png")
			title := fmt.Sprintf("%s B%s %v", sceneID, band, out.Kind)
			if err := report.WriteHistogram(path, title, img.Pix, report.DefaultBins); err != nil {
				log.Printf("[B%s] Quicklook error: %v", band, err)
			}
		}
	}

	startTime := time.Now()
	stats.StartReporter()
	results := calibrate.RunScene(ctx, engine, scene, bands, *workers)
	stats.StopReporter()
	elapsed := time.Since(startTime)

	now := time.Now()
	var rows []report.BandReport
	for _, r := range results {
		rows = append(rows, r.Reports(runID, sceneID, scene.Sensor.String(), now)...)
	}

	reportPath := ""
	if *reportDir != "" {
		reportPath = filepath.Join(*reportDir, report.ReportFileName(sceneID, runID))
	}
	publish(ctx, rows, reportPath, lg, *chHost, *chDB, *chTable)

	failed := printResults(results)
	if lg != nil {
		if err := lg.FinishRun(runID, failed); err != nil {
			log.Printf("Ledger error: %v", err)
		}
	}

	mpx := float64(stats.GetTotalPixels()) / 1e6
	log.Println("=========================================================")
	log.Println("Final Statistics")
	log.Println("=========================================================")
	log.Printf("Bands:     %d ok, %d failed", len(results)-failed, failed)
	log.Printf("Pixels:    %.2f Mpx", mpx)
	log.Printf("Read:      %.2f MiB", float64(stats.GetTotalBytes())/1024/1024)
	log.Printf("Elapsed:   %v", elapsed.Round(time.Millisecond))
	log.Printf("Rate:      %.2f Mpx/s", mpx/elapsed.Seconds())
	log.Println("=========================================================")

	if failed > 0 {
		if lg != nil {
			lg.Close()
		}
		os.Exit(1)
	}
}
