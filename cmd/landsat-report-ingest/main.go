// landsat-report-ingest - Parquet band reports → ClickHouse
//
// Loads the per-band Parquet reports written by landsat-calibrate into a
// ClickHouse table, one batch per report file.
//
// Build: go build -ldflags="-s -w" -o build/landsat-report-ingest ./cmd/landsat-report-ingest

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/pberezina/LandsatPreprocessing/internal/common"
	"github.com/pberezina/LandsatPreprocessing/internal/monitoring"
	"github.com/pberezina/LandsatPreprocessing/internal/report"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

// ingestFile appends every row of one report file to a batch and sends it.
func ingestFile(ctx context.Context, conn driver.Conn, tableFQN, path string) (int, error) {
	rows, err := report.ReadParquet(path)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	batch, err := conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", tableFQN))
	if err != nil {
		return 0, err
	}

	for _, r := range rows {
		err := batch.Append(
			r.RunID,
			r.SceneID,
			r.Sensor,
			r.Band,
			r.Product,
			r.Path,
			r.Status,
			r.Error,
			r.Pixels,
			r.NoData,
			r.Min,
			r.Max,
			r.Mean,
			r.StdDev,
			r.ElapsedMs,
			r.Created(),
		)
		if err != nil {
			batch.Abort()
			return 0, fmt.Errorf("append: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func main() {
	cfg := common.DefaultConfig()

	chHost := flag.String("ch-host", "127.0.0.1:9000", "ClickHouse address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", cfg.ClickHouseTable, "ClickHouse table")
	create := flag.Bool("create", false, "Create the table if it does not exist")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "landsat-report-ingest v%s - Band Report Ingester\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [files or directories...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Default source: %s\n\n", cfg.ReportDir())
		flag.PrintDefaults()
	}

	flag.Parse()
	monitoring.SetLevel(cfg.LogLevel)

	log.Println("=========================================================")
	log.Printf("Landsat Report Ingest v%s", Version)
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

	sources := flag.Args()
	if len(sources) == 0 {
		sources = []string{cfg.ReportDir()}
	}
	files, err := report.FindParquet(sources...)
	if err != nil {
		log.Fatalf("Cannot list reports: %v", err)
	}
	if len(files) == 0 {
		log.Fatal("No report files to process")
	}
	log.Printf("Found %d report file(s)", len(files))

	log.Printf("Connecting to ClickHouse at %s...", *chHost)
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{*chHost},
		Auth: clickhouse.Auth{
			Database: *chDB,
			Username: "default",
			Password: "",
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		log.Fatalf("ClickHouse connection failed: %v", err)
	}
	defer conn.Close()

	if err := conn.Ping(ctx); err != nil {
		log.Fatalf("ClickHouse ping failed: %v", err)
	}

	tableFQN := fmt.Sprintf("%s.%s", *chDB, *chTable)
	if *create {
		if err := conn.Exec(ctx, fmt.Sprintf(report.TableDDL, tableFQN)); err != nil {
			log.Fatalf("Create table failed: %v", err)
		}
	}
	log.Printf("Table: %s", tableFQN)

	startTime := time.Now()
	totalRows := 0
	failedFiles := 0

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		n, err := ingestFile(ctx, conn, tableFQN, path)
		if err != nil {
			log.Printf("[%s] Ingest error: %v", filepath.Base(path), err)
			failedFiles++
			continue
		}
		log.Printf("[%s] %d rows", filepath.Base(path), n)
		totalRows += n
	}

	elapsed := time.Since(startTime)

	log.Println()
	log.Println("=========================================================")
	log.Println("Final Statistics")
	log.Println("=========================================================")
	log.Printf("Files:       %d (%d failed)", len(files), failedFiles)
	log.Printf("Total Rows:  %d", totalRows)
	log.Printf("Elapsed:     %v", elapsed.Round(time.Millisecond))
	log.Println("=========================================================")

	if failedFiles > 0 {
		os.Exit(1)
	}
}
