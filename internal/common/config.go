// Package common provides shared utilities for the Landsat preprocessing tools.
package common

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// Config holds common configuration for all applications.
// Values come from the environment; command-line flags override them.
type Config struct {
	DataDir            string
	ESUNStandard       string
	DistanceTablePath  string // empty = embedded reference table
	Workers            int    // concurrent band jobs
	TileWorkers        int    // goroutines per element-wise map
	LedgerPath         string // empty = ledger disabled
	ClickHouseHost     string // empty = ClickHouse sink disabled
	ClickHouseDatabase string
	ClickHouseTable    string
	LogLevel           string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:            getEnv("LANDSAT_DATA_DIR", "/var/lib/landsat"),
		ESUNStandard:       getEnv("LANDSAT_ESUN_STANDARD", "ETM+ Thuillier"),
		DistanceTablePath:  getEnv("LANDSAT_DISTANCE_TABLE", ""),
		Workers:            getEnvInt("LANDSAT_WORKERS", 4),
		TileWorkers:        getEnvInt("LANDSAT_TILE_WORKERS", runtime.NumCPU()),
		LedgerPath:         getEnv("LANDSAT_LEDGER", ""),
		ClickHouseHost:     getEnv("CLICKHOUSE_HOST", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "landsat"),
		ClickHouseTable:    getEnv("CLICKHOUSE_TABLE", "band_reports"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

// ReportDir returns the default directory for Parquet band reports.
func (c *Config) ReportDir() string {
	return filepath.Join(c.DataDir, "reports")
}

// ClickHouseEnabled reports whether a ClickHouse sink was configured.
func (c *Config) ClickHouseEnabled() bool {
	return c.ClickHouseHost != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
