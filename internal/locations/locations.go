// Package locations loads the station location table and provides the
// station-name normalization used to match file names against it.
package locations

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Location is one row of the station table. UTCOffset is derived from the
// optional timezone column ("UTC+7" -> 7) and only used to compute local
// time convenience columns; all pipeline timestamps stay UTC.
type Location struct {
	Station   string
	Latitude  float64
	Longitude float64
	Elevation float64
	UTCOffset int
	HasOffset bool
}

var requiredColumns = []string{"latitude", "longitude", "elevation", "station"}

// Load reads the location table. A missing or invalid table is the one
// error that aborts a whole run, so the caller treats it as fatal.
func Load(path string) ([]Location, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open location table: %w", err)
	}
	defer f.Close()

	locs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return locs, nil
}

// Read parses a location table stream.
func Read(r io.Reader) ([]Location, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, c := range header {
		idx[strings.TrimSpace(strings.ToLower(c))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("location table missing required column %q", col)
		}
	}
	tzIdx, hasTZ := idx["timezone"]

	maxIdx := 0
	for _, col := range requiredColumns {
		if idx[col] > maxIdx {
			maxIdx = idx[col]
		}
	}

	var locs []Location
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(row) <= maxIdx {
			continue
		}

		station := strings.TrimSpace(row[idx["station"]])
		if station == "" {
			continue
		}

		lat, err1 := strconv.ParseFloat(strings.TrimSpace(row[idx["latitude"]]), 64)
		lon, err2 := strconv.ParseFloat(strings.TrimSpace(row[idx["longitude"]]), 64)
		elev, err3 := strconv.ParseFloat(strings.TrimSpace(row[idx["elevation"]]), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}

		loc := Location{
			Station:   station,
			Latitude:  lat,
			Longitude: lon,
			Elevation: elev,
		}
		if hasTZ && tzIdx < len(row) {
			if off, err := parseUTCOffset(row[tzIdx]); err == nil {
				loc.UTCOffset = off
				loc.HasOffset = true
			}
		}

		locs = append(locs, loc)
	}

	if len(locs) == 0 {
		return nil, fmt.Errorf("location table has no usable rows")
	}
	return locs, nil
}

// parseUTCOffset converts a "UTC+7" / "UTC-3" style string to hours.
func parseUTCOffset(s string) (int, error) {
	s = strings.TrimSpace(s)
	rest := strings.TrimPrefix(strings.ToUpper(s), "UTC")
	if rest == "" {
		return 0, nil
	}
	off, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("unparseable timezone %q", s)
	}
	return off, nil
}

var (
	sanitizeRe = regexp.MustCompile(`[^\w.\-]`)
	nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	spacesRe   = regexp.MustCompile(`\s+`)
)

// SanitizeStation makes a station name safe for use in file names.
func SanitizeStation(name string) string {
	return sanitizeRe.ReplaceAllString(name, "_")
}

// CleanKey reduces a station name to a canonical matching key: underscores
// become spaces, everything but letters, digits and spaces is dropped,
// case is folded and runs of whitespace collapse. "Tangerang_Selatan" and
// "tangerang  selatan" map to the same key.
func CleanKey(name string) string {
	s := strings.ReplaceAll(name, "_", " ")
	s = nonAlnumRe.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Index maps cleaned station keys to their locations.
func Index(locs []Location) map[string]Location {
	m := make(map[string]Location, len(locs))
	for _, loc := range locs {
		m[CleanKey(loc.Station)] = loc
	}
	return m
}
