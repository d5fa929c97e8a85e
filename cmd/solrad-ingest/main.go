// solrad-ingest - Load processed 10-minute radiation tables into ClickHouse
//
// Reads per-station processed CSVs (solrad-download output), extracts the
// station name from each file name and bulk-inserts the records with the
// native columnar protocol. Schema creation and post-insert verification
// go through the clickhouse-go driver; the insert itself uses ch-go.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solrad-ingest ./cmd/solrad-ingest

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"sort"
	"syscall"
	"time"

	"github.com/ClickHouse/ch-go"
	"github.com/ClickHouse/ch-go/proto"
	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/wetsa-lab/solrad-apps/internal/common"
	"github.com/wetsa-lab/solrad-apps/internal/solrad"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

// cloud_cover is non-nullable in the table; records without cloud data
// store this sentinel.
const noCloudSentinel = -1.0

var processedFileRe = regexp.MustCompile(`^processed_10min_(.*?)_(clear|observed_cloud)\.csv$`)

// RadiationBatch holds column data for native insert.
type RadiationBatch struct {
	Station    *proto.ColStr
	Time       *proto.ColDateTime
	GHI        *proto.ColFloat32
	DHI        *proto.ColFloat32
	BNI        *proto.ColFloat32
	CloudCover *proto.ColFloat32
	SkyType    *proto.ColStr
	SourceFile *proto.ColStr
}

func NewRadiationBatch() *RadiationBatch {
	return &RadiationBatch{
		Station:    new(proto.ColStr),
		Time:       new(proto.ColDateTime),
		GHI:        new(proto.ColFloat32),
		DHI:        new(proto.ColFloat32),
		BNI:        new(proto.ColFloat32),
		CloudCover: new(proto.ColFloat32),
		SkyType:    new(proto.ColStr),
		SourceFile: new(proto.ColStr),
	}
}

func (b *RadiationBatch) Reset() {
	b.Station.Reset()
	b.Time.Reset()
	b.GHI.Reset()
	b.DHI.Reset()
	b.BNI.Reset()
	b.CloudCover.Reset()
	b.SkyType.Reset()
	b.SourceFile.Reset()
}

func (b *RadiationBatch) Len() int {
	return b.Time.Rows()
}

func (b *RadiationBatch) Input() proto.Input {
	return proto.Input{
		{Name: "station", Data: b.Station},
		{Name: "time", Data: b.Time},
		{Name: "ghi", Data: b.GHI},
		{Name: "dhi", Data: b.DHI},
		{Name: "bni", Data: b.BNI},
		{Name: "cloud_cover", Data: b.CloudCover},
		{Name: "sky_type", Data: b.SkyType},
		{Name: "source_file", Data: b.SourceFile},
	}
}

func (b *RadiationBatch) AddRecord(station, skyType, sourceFile string, rec solrad.AggregatedRecord) bool {
	// ClickHouse columns are non-nullable; only fully populated
	// irradiance rows are worth storing.
	if !rec.GHI.Valid || !rec.DHI.Valid || !rec.BNI.Valid {
		return false
	}

	cloud := float32(noCloudSentinel)
	if rec.CloudCover.Valid {
		cloud = float32(rec.CloudCover.V)
	}

	b.Station.Append(station)
	b.Time.Append(rec.Time)
	b.GHI.Append(float32(rec.GHI.V))
	b.DHI.Append(float32(rec.DHI.V))
	b.BNI.Append(float32(rec.BNI.V))
	b.CloudCover.Append(cloud)
	b.SkyType.Append(skyType)
	b.SourceFile.Append(sourceFile)
	return true
}

func flushBatch(ctx context.Context, conn *ch.Client, tableFQN string, batch *RadiationBatch) error {
	if batch.Len() == 0 {
		return nil
	}

	query := fmt.Sprintf("INSERT INTO %s (station, time, ghi, dhi, bni, cloud_cover, sky_type, source_file) VALUES", tableFQN)
	return conn.Do(ctx, ch.Query{
		Body:  query,
		Input: batch.Input(),
	})
}

// parseProcessedFile loads one processed CSV into the batch, returning
// the number of rows appended.
func parseProcessedFile(filePath string, batch *RadiationBatch) (int, error) {
	m := processedFileRe.FindStringSubmatch(filepath.Base(filePath))
	if m == nil {
		return 0, fmt.Errorf("file name does not match processed_10min_<station>_<sky>.csv")
	}
	station, skyType := m[1], m[2]

	f, err := os.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	records, err := solrad.ReadProcessed(f)
	if err != nil {
		return 0, err
	}

	count := 0
	sourceFile := filepath.Base(filePath)
	for _, rec := range records {
		if batch.AddRecord(station, skyType, sourceFile, rec) {
			count++
		}
	}
	return count, nil
}

func ensureSchema(ctx context.Context, addr, db, table, user, password string, truncate bool) error {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Username: user,
			Password: password,
		},
	})
	if err != nil {
		return fmt.Errorf("clickhouse open: %w", err)
	}
	defer conn.Close()

	if err := conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db)); err != nil {
		return fmt.Errorf("create database: %w", err)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
		station     String,
		time        DateTime('UTC'),
		ghi         Float32,
		dhi         Float32,
		bni         Float32,
		cloud_cover Float32,
		sky_type    LowCardinality(String),
		source_file String
	) ENGINE = ReplacingMergeTree
	ORDER BY (station, sky_type, time)`, db, table)

	if err := conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if truncate {
		if err := conn.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s.%s", db, table)); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
	}
	return nil
}

func verifyCount(ctx context.Context, addr, db, table, user, password string) (uint64, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: db,
			Username: user,
			Password: password,
		},
	})
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var count uint64
	row := conn.QueryRow(ctx, fmt.Sprintf("SELECT count() FROM %s.%s", db, table))
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func main() {
	cfg := common.DefaultConfig()

	chHost := flag.String("ch-host", cfg.ClickHouseAddr(), "ClickHouse address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", "radiation_10min", "ClickHouse table")
	chUser := flag.String("ch-user", cfg.ClickHouseUser, "ClickHouse user")
	chPassword := flag.String("ch-password", cfg.ClickHousePassword, "ClickHouse password")
	sourceDir := flag.String("source-dir", cfg.DataDir, "Processed table source directory")
	truncate := flag.Bool("truncate", false, "Truncate table before insert")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solrad-ingest v%s - Radiation Table Ingester\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [files...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ingests processed 10-minute radiation tables into ClickHouse.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	log.Println("=========================================================")
	log.Printf("Solrad Ingest v%s", Version)
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

	tableFQN := fmt.Sprintf("%s.%s", *chDB, *chTable)
	log.Printf("Table: %s", tableFQN)

	if err := ensureSchema(ctx, *chHost, *chDB, *chTable, *chUser, *chPassword, *truncate); err != nil {
		log.Fatalf("Schema setup failed: %v", err)
	}

	// Discover files
	var files []string
	if len(flag.Args()) > 0 {
		files = flag.Args()
	} else {
		entries, err := os.ReadDir(*sourceDir)
		if err != nil {
			log.Fatalf("Cannot read source directory: %v", err)
		}
		for _, e := range entries {
			if !e.IsDir() && processedFileRe.MatchString(e.Name()) {
				files = append(files, filepath.Join(*sourceDir, e.Name()))
			}
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		log.Fatal("No files to process")
	}
	log.Printf("Found %d file(s)", len(files))

	log.Printf("Connecting to ClickHouse at %s...", *chHost)
	conn, err := ch.Dial(ctx, ch.Options{
		Address:     *chHost,
		Database:    *chDB,
		User:        *chUser,
		Password:    *chPassword,
		Compression: ch.CompressionLZ4,
	})
	if err != nil {
		log.Fatalf("ClickHouse connection failed: %v", err)
	}
	defer conn.Close()

	startTime := time.Now()
	totalRecords := 0
	batch := NewRadiationBatch()

	for _, filePath := range files {
		select {
		case <-ctx.Done():
			break
		default:
		}

		count, err := parseProcessedFile(filePath, batch)
		if err != nil {
			log.Printf("[%s] Parse error: %v", filepath.Base(filePath), err)
			continue
		}

		log.Printf("[%s] Parsed %d records", filepath.Base(filePath), count)
		totalRecords += count
	}

	if batch.Len() > 0 {
		if err := flushBatch(ctx, conn, tableFQN, batch); err != nil {
			log.Fatalf("Insert error: %v", err)
		}
		log.Printf("Inserted %d records", batch.Len())
	}

	rowCount, err := verifyCount(ctx, *chHost, *chDB, *chTable, *chUser, *chPassword)
	if err != nil {
		log.Printf("Verification warning: %v", err)
	} else {
		log.Printf("Table now holds %d rows", rowCount)
	}

	elapsed := time.Since(startTime)

	log.Println()
	log.Println("=========================================================")
	log.Println("Final Statistics")
	log.Println("=========================================================")
	log.Printf("Total Records: %d", totalRecords)
	log.Printf("Elapsed:       %v", elapsed.Round(time.Millisecond))
	log.Println("=========================================================")
}
