// solrad-compile - Compile per-station processed tables into one Parquet
// dataset.
//
// Station files are matched against the location table by a cleaned name
// key (case- and punctuation-insensitive), tagged with coordinates and a
// local-time column derived from the station's UTC offset, and written as
// a single columnar file. The satellite BNI component is exposed as DNI
// in the compiled dataset.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solrad-compile ./cmd/solrad-compile

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/wetsa-lab/solrad-apps/internal/locations"
	"github.com/wetsa-lab/solrad-apps/internal/solrad"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

var stationFromFile = regexp.MustCompile(`processed_10min_(.*?)_observed_cloud\.csv$`)

// CompiledRow is one timestamped observation in the compiled dataset.
// Irradiance fields are optional: buckets the aggregator marked as
// missing stay null in the Parquet output.
type CompiledRow struct {
	Station    string   `parquet:"station"`
	TimeUTC    int64    `parquet:"time_utc"`
	TimeLocal  int64    `parquet:"time_local"`
	Latitude   float64  `parquet:"latitude"`
	Longitude  float64  `parquet:"longitude"`
	Elevation  float64  `parquet:"elevation"`
	GHI        *float64 `parquet:"ghi,optional"`
	DHI        *float64 `parquet:"dhi,optional"`
	DNI        *float64 `parquet:"dni,optional"`
	CloudCover *float64 `parquet:"cloud_cover,optional"`
}

func optValue(v solrad.Value) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.V
	return &f
}

func compileStation(path string, loc locations.Location) ([]CompiledRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := solrad.ReadProcessed(f)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty processed table")
	}

	offset := time.Duration(loc.UTCOffset) * time.Hour
	rows := make([]CompiledRow, 0, len(records))

	for _, rec := range records {
		rows = append(rows, CompiledRow{
			Station:    loc.Station,
			TimeUTC:    rec.Time.Unix(),
			TimeLocal:  rec.Time.Add(offset).Unix(),
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
			Elevation:  loc.Elevation,
			GHI:        optValue(rec.GHI),
			DHI:        optValue(rec.DHI),
			DNI:        optValue(rec.BNI), // BNI is reported as DNI downstream
			CloudCover: optValue(rec.CloudCover),
		})
	}
	return rows, nil
}

func main() {
	locPath := flag.String("locations", "asrs_location.csv", "Station location table (CSV)")
	sourceDir := flag.String("source-dir", "solar_data_output", "Directory with processed 10-minute tables")
	outPath := flag.String("out", "compiled_solar_data.parquet", "Output Parquet file")
	exclude := flag.String("exclude", "", "Station name to exclude")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solrad-compile v%s - Processed Table Compiler\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Merges all per-station processed tables into one Parquet dataset\n")
		fmt.Fprintf(os.Stderr, "with station coordinates and local-time columns.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	locs, err := locations.Load(*locPath)
	if err != nil {
		log.Fatalf("Cannot load location table: %v", err)
	}
	index := locations.Index(locs)

	pattern := filepath.Join(*sourceDir, "processed_10min_*_observed_cloud.csv")
	files, err := filepath.Glob(pattern)
	if err != nil {
		log.Fatalf("Glob failed: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("No files match %s", pattern)
	}
	sort.Strings(files) // keep output independent of directory order

	log.Println("=========================================================")
	log.Printf("Solrad Compile v%s", Version)
	log.Println("=========================================================")
	log.Printf("Input files: %d", len(files))
	log.Printf("Output:      %s", *outPath)

	excludeKey := ""
	if *exclude != "" {
		excludeKey = locations.CleanKey(*exclude)
	}

	var rows []CompiledRow
	compiled, skipped := 0, 0

	for _, path := range files {
		m := stationFromFile.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			log.Printf("[%s] Cannot extract station name, skipping", filepath.Base(path))
			skipped++
			continue
		}
		key := locations.CleanKey(m[1])

		if excludeKey != "" && key == excludeKey {
			log.Printf("[%s] Excluded", m[1])
			skipped++
			continue
		}

		loc, ok := index[key]
		if !ok {
			log.Printf("[%s] No location metadata, skipping", m[1])
			skipped++
			continue
		}
		if !loc.HasOffset {
			log.Printf("[%s] No timezone in location table, local time assumes UTC", loc.Station)
		}

		stationRows, err := compileStation(path, loc)
		if err != nil {
			log.Printf("[%s] ERROR: %v", loc.Station, err)
			skipped++
			continue
		}

		rows = append(rows, stationRows...)
		compiled++
		log.Printf("[%s] %d records", loc.Station, len(stationRows))
	}

	if len(rows) == 0 {
		log.Fatal("No data compiled, not writing output")
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("Cannot create output file: %v", err)
	}

	writer := parquet.NewGenericWriter[CompiledRow](f)
	if _, err := writer.Write(rows); err != nil {
		log.Fatalf("Parquet write failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		log.Fatalf("Parquet close failed: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Output close failed: %v", err)
	}

	log.Println("=========================================================")
	log.Println("Compile Summary")
	log.Println("=========================================================")
	log.Printf("Stations compiled: %d", compiled)
	log.Printf("Stations skipped:  %d", skipped)
	log.Printf("Total records:     %d", len(rows))
	log.Println("=========================================================")
}
