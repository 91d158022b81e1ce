// Package ledger records calibration runs and their per-band outcomes in a
// local SQLite database.
package ledger

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pberezina/LandsatPreprocessing/internal/monitoring"
	"github.com/pberezina/LandsatPreprocessing/internal/report"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Run status values.
const (
	RunRunning  = "running"
	RunComplete = "complete"
	RunFailed   = "failed"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one invocation against one scene.
type Run struct {
	ID          string
	SceneID     string
	SceneDir    string
	Sensor      string
	StartedAt   time.Time
	FinishedAt  *time.Time
	BandsFailed int
	Status      string
}

// Ledger wraps the SQLite handle.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the ledger at path and applies pending migrations.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; serialize through a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure ledger: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db, now: time.Now}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}

	// m is not closed: that would close db
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// StartRun inserts a running run with a fresh id.
func (l *Ledger) StartRun(sceneID, sceneDir, sensor string) (Run, error) {
	run := Run{
		ID:        uuid.New().String(),
		SceneID:   sceneID,
		SceneDir:  sceneDir,
		Sensor:    sensor,
		StartedAt: l.now().UTC(),
		Status:    RunRunning,
	}
	_, err := l.db.Exec(
		`INSERT INTO runs (run_id, scene_id, scene_dir, sensor, started_at, status) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.SceneID, run.SceneDir, run.Sensor, run.StartedAt.UnixMilli(), run.Status,
	)
	if err != nil {
		return Run{}, fmt.Errorf("start run: %w", err)
	}
	return run, nil
}

// RecordBand stores one report row under its run.
func (l *Ledger) RecordBand(r report.BandReport) error {
	_, err := l.db.Exec(
		`INSERT INTO band_results
			(run_id, band, product, path, status, error, pixels, nodata, min, max, mean, stddev, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Band, r.Product, r.Path, r.Status, r.Error,
		int64(r.Pixels), int64(r.NoData), r.Min, r.Max, r.Mean, r.StdDev, r.ElapsedMs, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record band %s: %w", r.Band, err)
	}
	return nil
}

// FinishRun closes a run. Any failed band marks the run failed.
func (l *Ledger) FinishRun(runID string, bandsFailed int) error {
	status := RunComplete
	if bandsFailed > 0 {
		status = RunFailed
	}
	res, err := l.db.Exec(
		`UPDATE runs SET finished_at = ?, bands_failed = ?, status = ? WHERE run_id = ?`,
		l.now().UTC().UnixMilli(), bandsFailed, status, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// Run loads a run by id.
func (l *Ledger) Run(runID string) (Run, error) {
	row := l.db.QueryRow(
		`SELECT run_id, scene_id, scene_dir, sensor, started_at, finished_at, bands_failed, status
		FROM runs WHERE run_id = ?`, runID)
	return scanRun(row)
}

// LatestRun returns the most recently started run of a scene.
func (l *Ledger) LatestRun(sceneID string) (Run, error) {
	row := l.db.QueryRow(
		`SELECT run_id, scene_id, scene_dir, sensor, started_at, finished_at, bands_failed, status
		FROM runs WHERE scene_id = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`, sceneID)
	return scanRun(row)
}

// Bands returns the report rows of a run in insertion order.
func (l *Ledger) Bands(runID string) ([]report.BandReport, error) {
	rows, err := l.db.Query(
		`SELECT b.run_id, r.scene_id, r.sensor, b.band, b.product, b.path, b.status, b.error,
			b.pixels, b.nodata, b.min, b.max, b.mean, b.stddev, b.elapsed_ms, b.created_at
		FROM band_results b JOIN runs r ON r.run_id = b.run_id
		WHERE b.run_id = ? ORDER BY b.id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.BandReport
	for rows.Next() {
		var r report.BandReport
		var pixels, nodata int64
		if err := rows.Scan(
			&r.RunID, &r.SceneID, &r.Sensor, &r.Band, &r.Product, &r.Path, &r.Status, &r.Error,
			&pixels, &nodata, &r.Min, &r.Max, &r.Mean, &r.StdDev, &r.ElapsedMs, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		r.Pixels, r.NoData = uint64(pixels), uint64(nodata)
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var started int64
	var finished sql.NullInt64
	err := row.Scan(&run.ID, &run.SceneID, &run.SceneDir, &run.Sensor, &started, &finished, &run.BandsFailed, &run.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = time.UnixMilli(started).UTC()
	if finished.Valid {
		t := time.UnixMilli(finished.Int64).UTC()
		run.FinishedAt = &t
	}
	return run, nil
}

// migrateLogger routes migration output through the package logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Debugf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
