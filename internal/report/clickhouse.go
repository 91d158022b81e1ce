package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/ch-go"
	"github.com/ClickHouse/ch-go/proto"
)

// TableDDL creates the band report table. %s is the fully qualified name.
const TableDDL = `CREATE TABLE IF NOT EXISTS %s (
    run_id     String,
    scene_id   String,
    sensor     LowCardinality(String),
    band       LowCardinality(String),
    product    LowCardinality(String),
    path       String,
    status     LowCardinality(String),
    error      String,
    pixels     UInt64,
    nodata     UInt64,
    min        Float64,
    max        Float64,
    mean       Float64,
    stddev     Float64,
    elapsed_ms Float64,
    created_at DateTime
) ENGINE = MergeTree
ORDER BY (scene_id, band, created_at)`

// =============================================================================
// Column batch
// =============================================================================

// ReportBatch holds column data for native insert.
type ReportBatch struct {
	RunID     *proto.ColStr
	SceneID   *proto.ColStr
	Sensor    *proto.ColStr
	Band      *proto.ColStr
	Product   *proto.ColStr
	Path      *proto.ColStr
	Status    *proto.ColStr
	Error     *proto.ColStr
	Pixels    *proto.ColUInt64
	NoData    *proto.ColUInt64
	Min       *proto.ColFloat64
	Max       *proto.ColFloat64
	Mean      *proto.ColFloat64
	StdDev    *proto.ColFloat64
	ElapsedMs *proto.ColFloat64
	CreatedAt *proto.ColDateTime
}

func NewReportBatch() *ReportBatch {
	return &ReportBatch{
		RunID:     new(proto.ColStr),
		SceneID:   new(proto.ColStr),
		Sensor:    new(proto.ColStr),
		Band:      new(proto.ColStr),
		Product:   new(proto.ColStr),
		Path:      new(proto.ColStr),
		Status:    new(proto.ColStr),
		Error:     new(proto.ColStr),
		Pixels:    new(proto.ColUInt64),
		NoData:    new(proto.ColUInt64),
		Min:       new(proto.ColFloat64),
		Max:       new(proto.ColFloat64),
		Mean:      new(proto.ColFloat64),
		StdDev:    new(proto.ColFloat64),
		ElapsedMs: new(proto.ColFloat64),
		CreatedAt: new(proto.ColDateTime),
	}
}

func (b *ReportBatch) Reset() {
	b.RunID.Reset()
	b.SceneID.Reset()
	b.Sensor.Reset()
	b.Band.Reset()
	b.Product.Reset()
	b.Path.Reset()
	b.Status.Reset()
	b.Error.Reset()
	b.Pixels.Reset()
	b.NoData.Reset()
	b.Min.Reset()
	b.Max.Reset()
	b.Mean.Reset()
	b.StdDev.Reset()
	b.ElapsedMs.Reset()
	b.CreatedAt.Reset()
}

func (b *ReportBatch) Len() int {
	return b.RunID.Rows()
}

func (b *ReportBatch) Input() proto.Input {
	return proto.Input{
		{Name: "run_id", Data: b.RunID},
		{Name: "scene_id", Data: b.SceneID},
		{Name: "sensor", Data: b.Sensor},
		{Name: "band", Data: b.Band},
		{Name: "product", Data: b.Product},
		{Name: "path", Data: b.Path},
		{Name: "status", Data: b.Status},
		{Name: "error", Data: b.Error},
		{Name: "pixels", Data: b.Pixels},
		{Name: "nodata", Data: b.NoData},
		{Name: "min", Data: b.Min},
		{Name: "max", Data: b.Max},
		{Name: "mean", Data: b.Mean},
		{Name: "stddev", Data: b.StdDev},
		{Name: "elapsed_ms", Data: b.ElapsedMs},
		{Name: "created_at", Data: b.CreatedAt},
	}
}

func (b *ReportBatch) Add(r BandReport) {
	b.RunID.Append(r.RunID)
	b.SceneID.Append(r.SceneID)
	b.Sensor.Append(r.Sensor)
	b.Band.Append(r.Band)
	b.Product.Append(r.Product)
	b.Path.Append(r.Path)
	b.Status.Append(r.Status)
	b.Error.Append(r.Error)
	b.Pixels.Append(r.Pixels)
	b.NoData.Append(r.NoData)
	b.Min.Append(r.Min)
	b.Max.Append(r.Max)
	b.Mean.Append(r.Mean)
	b.StdDev.Append(r.StdDev)
	b.ElapsedMs.Append(r.ElapsedMs)
	b.CreatedAt.Append(r.Created())
}

// =============================================================================
// Sink
// =============================================================================

// InsertBlockRows caps the rows sent per native INSERT block.
const InsertBlockRows = 10000

// ClickHouseSink inserts band reports over the native protocol.
type ClickHouseSink struct {
	conn     *ch.Client
	tableFQN string
}

// DialClickHouse connects to host and targets db.table.
func DialClickHouse(ctx context.Context, host, db, table string) (*ClickHouseSink, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := ch.Dial(dialCtx, ch.Options{
		Address:     host,
		Database:    db,
		Compression: ch.CompressionLZ4,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse connect %s: %w", host, err)
	}
	return &ClickHouseSink{conn: conn, tableFQN: fmt.Sprintf("%s.%s", db, table)}, nil
}

// Table returns the fully qualified target table.
func (s *ClickHouseSink) Table() string {
	return s.tableFQN
}

// EnsureTable creates the target table if it does not exist.
func (s *ClickHouseSink) EnsureTable(ctx context.Context) error {
	return s.conn.Do(ctx, ch.Query{Body: fmt.Sprintf(TableDDL, s.tableFQN)})
}

// Insert sends rows in blocks of at most InsertBlockRows.
func (s *ClickHouseSink) Insert(ctx context.Context, rows []BandReport) error {
	batch := NewReportBatch()
	for _, block := range Blocks(rows, InsertBlockRows) {
		batch.Reset()
		for _, r := range block {
			batch.Add(r)
		}
		if err := s.conn.Do(ctx, ch.Query{
			Body:  InsertQuery(s.tableFQN),
			Input: batch.Input(),
		}); err != nil {
			return fmt.Errorf("insert %d rows into %s: %w", batch.Len(), s.tableFQN, err)
		}
	}
	return nil
}

// Blocks splits rows into consecutive slices of at most size rows.
func Blocks(rows []BandReport, size int) [][]BandReport {
	if size <= 0 {
		size = InsertBlockRows
	}
	var out [][]BandReport
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}

// Close closes the connection.
func (s *ClickHouseSink) Close() error {
	return s.conn.Close()
}

// InsertQuery builds the native INSERT statement for the report columns.
func InsertQuery(tableFQN string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES", tableFQN, columnList())
}

func columnList() string {
	cols := NewReportBatch().Input()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
