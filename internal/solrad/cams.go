package solrad

// cams.go - parser for the CAMS radiation service "csv_expert" format.
//
// The format carries metadata and the header row as '#' comment lines,
// followed by ';'-separated data rows. The header is the last comment
// line before the first data row. The timestamp column "Observation
// period" holds "start/end" ISO instants; the period start is taken as
// the sample timestamp and treated as UTC.

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Column names of interest in the csv_expert header.
const (
	ColObservationPeriod = "Observation period"
	ColGHI               = "GHI"
	ColDHI               = "DHI"
	ColBNI               = "BNI"
	ColCloudCover        = "Cloud coverage"
)

// Values at or below this threshold are treated as sentinel markers for
// missing data and excluded from aggregation.
const sentinelThreshold = -999.0

// observation period start layouts seen in CAMS exports
var periodLayouts = []string{
	"2006-01-02T15:04:05.0",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseExpertCSV reads a raw CAMS csv_expert stream and returns the native
// resolution samples in file order. Rows that cannot be timestamped are
// dropped; unparseable component fields become absent Values without
// disqualifying the rest of the row.
func ParseExpertCSV(r io.Reader) ([]Sample, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var headerLine string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			if len(dataLines) == 0 {
				headerLine = line
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		dataLines = append(dataLines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read csv_expert stream: %w", err)
	}
	if headerLine == "" {
		return nil, fmt.Errorf("no header comment line found")
	}

	cols := splitHeader(headerLine)
	idx := map[string]int{}
	for i, c := range cols {
		idx[c] = i
	}
	timeIdx, ok := idx[ColObservationPeriod]
	if !ok {
		return nil, fmt.Errorf("header missing %q column", ColObservationPeriod)
	}

	samples := make([]Sample, 0, len(dataLines))
	rowErrors := 0

	for _, line := range dataLines {
		fields := strings.Split(line, ";")
		if timeIdx >= len(fields) {
			rowErrors++
			continue
		}

		ts, err := parsePeriodStart(fields[timeIdx])
		if err != nil {
			rowErrors++
			continue
		}

		samples = append(samples, Sample{
			Time:       ts,
			GHI:        parseField(fields, idx, ColGHI),
			DHI:        parseField(fields, idx, ColDHI),
			BNI:        parseField(fields, idx, ColBNI),
			CloudCover: parseField(fields, idx, ColCloudCover),
		})
	}

	if rowErrors > 0 && len(samples) == 0 {
		return nil, fmt.Errorf("no parseable rows (%d rejected)", rowErrors)
	}
	return samples, nil
}

func splitHeader(line string) []string {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
	parts := strings.Split(line, ";")
	cols := make([]string, len(parts))
	for i, p := range parts {
		cols[i] = strings.TrimSpace(p)
	}
	return cols
}

// parsePeriodStart extracts the start instant from a "start/end" pair.
func parsePeriodStart(field string) (time.Time, error) {
	start := field
	if i := strings.IndexByte(field, '/'); i >= 0 {
		start = field[:i]
	}
	start = strings.TrimSpace(start)

	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, start); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable observation period %q", field)
}

func parseField(fields []string, idx map[string]int, name string) Value {
	i, ok := idx[name]
	if !ok || i >= len(fields) {
		return None()
	}
	s := strings.TrimSpace(fields[i])
	if s == "" || strings.EqualFold(s, "nan") {
		return None()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= sentinelThreshold {
		return None()
	}
	return Some(v)
}
