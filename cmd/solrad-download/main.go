// solrad-download - Download CAMS solar radiation time series and
// aggregate to 10-minute means.
//
// For every station in the location table (and every requested sky type)
// the tool fetches the 1-minute csv_expert series for a date range from
// the CAMS radiation service, resamples it onto the fixed 10-minute UTC
// grid and writes one processed CSV per station. Raw 1-minute files are
// gzip-archived after successful aggregation.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solrad-download ./cmd/solrad-download

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"

	"github.com/wetsa-lab/solrad-apps/internal/common"
	"github.com/wetsa-lab/solrad-apps/internal/locations"
	"github.com/wetsa-lab/solrad-apps/internal/solrad"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

var allSkyTypes = []string{"clear", "observed_cloud"}

// fetchTimeSeries downloads one station's 1-minute series to destPath.
// The download goes to a temp file first and is renamed into place only
// when complete, so an interrupted run never leaves a truncated raw file.
func fetchTimeSeries(cfg *common.Config, loc locations.Location, skyType, dateRange, destPath string, timeout time.Duration) (int64, error) {
	q := url.Values{}
	q.Set("dataset", cfg.CAMSDataset)
	q.Set("latitude", fmt.Sprintf("%.6f", loc.Latitude))
	q.Set("longitude", fmt.Sprintf("%.6f", loc.Longitude))
	q.Set("altitude", fmt.Sprintf("%.0f", loc.Elevation))
	q.Set("date", dateRange)
	q.Set("sky_type", skyType)
	q.Set("time_step", "1minute")
	q.Set("time_reference", "universal_time")
	q.Set("format", "csv_expert")

	req, err := http.NewRequest(http.MethodGet, cfg.CAMSBaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if cfg.CAMSToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.CAMSToken)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("create file failed: %w", err)
	}

	n, err := io.Copy(f, resp.Body)
	f.Close()

	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("rename failed: %w", err)
	}

	return n, nil
}

// openRaw opens a raw file, transparently decompressing .gz archives.
func openRaw(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip open: %w", err)
	}
	return struct {
		io.Reader
		io.Closer
	}{gz, f}, nil
}

// aggregateRaw parses a raw 1-minute file and writes the 10-minute table.
func aggregateRaw(rawPath, processedPath string) (int, error) {
	r, err := openRaw(rawPath)
	if err != nil {
		return 0, fmt.Errorf("open raw file: %w", err)
	}
	defer r.Close()

	samples, err := solrad.ParseExpertCSV(r)
	if err != nil {
		return 0, fmt.Errorf("parse raw file: %w", err)
	}

	records, err := solrad.Aggregate(samples)
	if err != nil {
		return 0, err
	}

	out, err := os.Create(processedPath)
	if err != nil {
		return 0, fmt.Errorf("create processed file: %w", err)
	}
	if err := solrad.WriteProcessed(out, records); err != nil {
		out.Close()
		os.Remove(processedPath)
		return 0, fmt.Errorf("write processed file: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, err
	}

	return len(records), nil
}

// compressRaw gzips the raw file with parallel compression and removes
// the original.
func compressRaw(rawPath string) (string, error) {
	src, err := os.Open(rawPath)
	if err != nil {
		return "", err
	}

	gzPath := rawPath + ".gz"
	dst, err := os.Create(gzPath)
	if err != nil {
		return "", err
	}

	zw := pgzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		dst.Close()
		src.Close()
		os.Remove(gzPath)
		return "", fmt.Errorf("compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		dst.Close()
		src.Close()
		os.Remove(gzPath)
		return "", fmt.Errorf("compress close: %w", err)
	}
	if err := dst.Close(); err != nil {
		src.Close()
		os.Remove(gzPath)
		return "", err
	}

	src.Close()
	if err := os.Remove(rawPath); err != nil {
		return gzPath, fmt.Errorf("remove raw original: %w", err)
	}
	return gzPath, nil
}

func rawFileName(station, skyType string) string {
	return fmt.Sprintf("raw_1min_%s_%s.csv", station, skyType)
}

func processedFileName(station, skyType string) string {
	return fmt.Sprintf("processed_10min_%s_%s.csv", station, skyType)
}

// findRaw locates an existing raw file for reprocessing, preferring the
// uncompressed one when both exist.
func findRaw(dir, station, skyType string) (string, bool) {
	plain := filepath.Join(dir, rawFileName(station, skyType))
	if info, err := os.Stat(plain); err == nil && info.Size() > 0 {
		return plain, true
	}
	gz := plain + ".gz"
	if info, err := os.Stat(gz); err == nil && info.Size() > 0 {
		return gz, true
	}
	return "", false
}

func main() {
	cfg := common.DefaultConfig()

	locPath := flag.String("locations", "asrs_location.csv", "Station location table (CSV)")
	destDir := flag.String("dest", cfg.DataDir, "Output directory")
	dateRange := flag.String("date", "2024-01-01/2024-12-31", "Date range (start/end)")
	sky := flag.String("sky", "all", "Sky type: clear, observed_cloud or 'all'")
	timeout := flag.Duration("timeout", 300*time.Second, "HTTP timeout per download")
	reprocess := flag.Bool("reprocess", false, "Re-aggregate from archived raw files, no network")
	keepRaw := flag.Bool("keep-raw", false, "Keep raw files uncompressed")
	listOnly := flag.Bool("list", false, "List stations without downloading")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solrad-download v%s - CAMS Radiation Downloader\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Downloads 1-minute CAMS solar radiation time series per station\n")
		fmt.Fprintf(os.Stderr, "and aggregates them to 10-minute means.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	locs, err := locations.Load(*locPath)
	if err != nil {
		log.Fatalf("Cannot load location table: %v", err)
	}

	if *listOnly {
		fmt.Printf("Stations in %s:\n\n", *locPath)
		for _, loc := range locs {
			fmt.Printf("  %-25s lat=%.4f lon=%.4f elev=%.0fm\n",
				loc.Station, loc.Latitude, loc.Longitude, loc.Elevation)
		}
		return
	}

	var skyTypes []string
	if *sky == "all" {
		skyTypes = allSkyTypes
	} else {
		skyTypes = []string{*sky}
	}

	log.Println("=========================================================")
	log.Printf("Solrad Download v%s", Version)
	log.Println("=========================================================")
	log.Printf("Stations:  %d", len(locs))
	log.Printf("Sky types: %s", strings.Join(skyTypes, ", "))
	log.Printf("Dates:     %s", *dateRange)
	log.Printf("Output:    %s", *destDir)

	if err := os.MkdirAll(*destDir, 0755); err != nil {
		log.Fatalf("Cannot create output directory: %v", err)
	}

	stats := common.NewRunStats()
	stats.StartReporter(30 * time.Second)

	for _, loc := range locs {
		station := locations.SanitizeStation(loc.Station)

		for _, skyType := range skyTypes {
			rawPath := filepath.Join(*destDir, rawFileName(station, skyType))
			processedPath := filepath.Join(*destDir, processedFileName(station, skyType))

			if *reprocess {
				found, ok := findRaw(*destDir, station, skyType)
				if !ok {
					log.Printf("[%s/%s] No raw archive found, skipping", loc.Station, skyType)
					stats.Skipped.Add(1)
					continue
				}
				rawPath = found
			} else {
				log.Printf("[%s/%s] Requesting 1-minute data...", loc.Station, skyType)
				n, err := fetchTimeSeries(cfg, loc, skyType, *dateRange, rawPath, *timeout)
				if err != nil {
					log.Printf("[%s/%s] ERROR: %v", loc.Station, skyType, err)
					stats.Failed.Add(1)
					continue
				}
				stats.Bytes.Add(uint64(n))
				log.Printf("[%s/%s] Downloaded %s (%d bytes)", loc.Station, skyType, filepath.Base(rawPath), n)
			}

			count, err := aggregateRaw(rawPath, processedPath)
			if err != nil {
				log.Printf("[%s/%s] Aggregation ERROR: %v", loc.Station, skyType, err)
				stats.Failed.Add(1)
				continue
			}
			log.Printf("[%s/%s] Wrote %d 10-minute records to %s",
				loc.Station, skyType, count, filepath.Base(processedPath))

			if !*keepRaw && !strings.HasSuffix(rawPath, ".gz") {
				gzPath, err := compressRaw(rawPath)
				if err != nil {
					log.Printf("[%s/%s] Archive warning: %v", loc.Station, skyType, err)
				} else {
					log.Printf("[%s/%s] Archived raw file as %s", loc.Station, skyType, filepath.Base(gzPath))
				}
			}

			stats.Processed.Add(1)
		}
	}

	stats.StopReporter()
	stats.Summary("Download Summary")

	if stats.Failed.Load() > 0 {
		os.Exit(1)
	}
}
