// solrad-compare - Compare CAMS satellite estimates against QC'd ground
// station measurements.
//
// For each station the tool joins the processed 10-minute satellite table
// with the quality-controlled ground file on exact UTC timestamps, then
// computes per-component bias and regression statistics and renders a
// multi-panel comparison figure. A station missing either input is
// skipped; the run continues.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solrad-compare ./cmd/solrad-compare

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wetsa-lab/solrad-apps/internal/common"
	"github.com/wetsa-lab/solrad-apps/internal/compare"
	"github.com/wetsa-lab/solrad-apps/internal/locations"
	"github.com/wetsa-lab/solrad-apps/internal/render"
	"github.com/wetsa-lab/solrad-apps/internal/solrad"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

// loadSatellite reads a processed table and converts the CAMS 1-minute
// energy values (Wh/m^2) to mean power (W/m^2). Cloud coverage is a
// percentage and stays as-is.
func loadSatellite(path string) ([]solrad.AggregatedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := solrad.ReadProcessed(f)
	if err != nil {
		return nil, err
	}

	for i := range records {
		records[i].GHI = records[i].GHI.Scale(solrad.WhPerMinToW)
		records[i].DHI = records[i].DHI.Scale(solrad.WhPerMinToW)
		records[i].BNI = records[i].BNI.Scale(solrad.WhPerMinToW)
	}
	return records, nil
}

func loadGround(path string) ([]solrad.GroundMeasurement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return solrad.ReadGround(f)
}

func writeStatsCSV(path string, stats []compare.ComponentStats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"component", "n", "mean_bias", "bias_stddev", "slope", "intercept", "r2"}); err != nil {
		return err
	}

	fmtOpt := func(v float64, defined bool) string {
		if !defined {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	for _, cs := range stats {
		row := []string{
			cs.Component,
			strconv.Itoa(cs.N),
			fmtOpt(cs.MeanBias, cs.MeanDefined),
			fmtOpt(cs.BiasStdDev, cs.StdDevDefined),
			fmtOpt(cs.Regression.Slope, cs.Regression.Defined),
			fmtOpt(cs.Regression.Intercept, cs.Regression.Defined),
			fmtOpt(cs.Regression.R2, cs.Regression.Defined),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func logStats(station string, stats []compare.ComponentStats) {
	for _, cs := range stats {
		if !cs.Regression.Defined {
			log.Printf("[%s] %s: n=%d, regression undefined (insufficient data)", station, cs.Component, cs.N)
			continue
		}
		log.Printf("[%s] %s: n=%d, mean bias %.1f W/m², slope %.3f, intercept %.1f, R² %.3f",
			station, cs.Component, cs.N, cs.MeanBias,
			cs.Regression.Slope, cs.Regression.Intercept, cs.Regression.R2)
	}
}

func main() {
	cfg := common.DefaultConfig()

	locPath := flag.String("locations", "asrs_location.csv", "Station location table (CSV)")
	camsDir := flag.String("cams-dir", cfg.DataDir, "Directory with processed 10-minute CAMS tables")
	groundDir := flag.String("ground-dir", ".", "Directory with QC_<station>_<year>_flagged.csv files")
	outDir := flag.String("out-dir", ".", "Output directory for figures and stats tables")
	year := flag.Int("year", 2024, "Ground file year")
	stationsArg := flag.String("stations", "", "Comma-separated station subset (default: all)")
	noFigures := flag.Bool("no-figures", false, "Skip figure rendering, write stats tables only")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solrad-compare v%s - CAMS vs Ground Comparison\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Joins satellite and ground tables per station and reports bias,\n")
		fmt.Fprintf(os.Stderr, "regression and ratio statistics.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	locs, err := locations.Load(*locPath)
	if err != nil {
		log.Fatalf("Cannot load location table: %v", err)
	}

	var subset map[string]bool
	if *stationsArg != "" {
		subset = map[string]bool{}
		for _, s := range strings.Split(*stationsArg, ",") {
			subset[locations.CleanKey(s)] = true
		}
	}

	log.Println("=========================================================")
	log.Printf("Solrad Compare v%s", Version)
	log.Println("=========================================================")
	log.Printf("Stations: %d", len(locs))
	log.Printf("Year:     %d", *year)

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Cannot create output directory: %v", err)
	}

	stats := common.NewRunStats()

	for _, loc := range locs {
		if subset != nil && !subset[locations.CleanKey(loc.Station)] {
			continue
		}

		station := locations.SanitizeStation(loc.Station)
		camsPath := filepath.Join(*camsDir, fmt.Sprintf("processed_10min_%s_observed_cloud.csv", station))
		groundPath := filepath.Join(*groundDir, fmt.Sprintf("QC_%s_%d_flagged.csv", station, *year))

		if _, err := os.Stat(camsPath); err != nil {
			log.Printf("[%s] Satellite table not found, skipping: %s", loc.Station, camsPath)
			stats.Skipped.Add(1)
			continue
		}
		if _, err := os.Stat(groundPath); err != nil {
			log.Printf("[%s] Ground file not found, skipping: %s", loc.Station, groundPath)
			stats.Skipped.Add(1)
			continue
		}

		sat, err := loadSatellite(camsPath)
		if err != nil {
			log.Printf("[%s] Satellite load ERROR: %v", loc.Station, err)
			stats.Failed.Add(1)
			continue
		}
		gnd, err := loadGround(groundPath)
		if err != nil {
			log.Printf("[%s] Ground load ERROR: %v", loc.Station, err)
			stats.Failed.Add(1)
			continue
		}

		matched := compare.Align(sat, gnd)
		log.Printf("[%s] %d matched 10-minute records", loc.Station, len(matched))

		if len(matched) == 0 {
			log.Printf("[%s] Insufficient data, no statistics produced", loc.Station)
			stats.Skipped.Add(1)
			continue
		}

		componentStats := compare.Compute(matched)
		logStats(loc.Station, componentStats)

		statsPath := filepath.Join(*outDir, fmt.Sprintf("comparison_stats_%s.csv", station))
		if err := writeStatsCSV(statsPath, componentStats); err != nil {
			log.Printf("[%s] Stats write ERROR: %v", loc.Station, err)
			stats.Failed.Add(1)
			continue
		}

		if !*noFigures {
			figPath := filepath.Join(*outDir, fmt.Sprintf("solar_radiation_comparison_%s.png", station))
			if err := render.StationFigure(figPath, loc.Station, matched, componentStats); err != nil {
				log.Printf("[%s] Figure ERROR: %v", loc.Station, err)
				stats.Failed.Add(1)
				continue
			}
			log.Printf("[%s] Figure saved to %s", loc.Station, filepath.Base(figPath))
		}

		stats.Processed.Add(1)
	}

	stats.Summary("Comparison Summary")

	if stats.Failed.Load() > 0 {
		os.Exit(1)
	}
}
