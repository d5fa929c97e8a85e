package solrad

// processed.go - reader/writer for the per-station 10-minute CSV tables.
//
// Layout: time,GHI,DHI,BNI,Cloud coverage
// Empty cells mark buckets (or components) with no data.

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

const processedTimeLayout = "2006-01-02 15:04:05"

var processedHeader = []string{"time", ColGHI, ColDHI, ColBNI, ColCloudCover}

// WriteProcessed writes aggregated records as a processed CSV table.
// Records are written in input order; callers pass the Aggregator's
// output, which is already ascending and duplicate-free.
func WriteProcessed(w io.Writer, records []AggregatedRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(processedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.Time.UTC().Format(processedTimeLayout),
			formatValue(rec.GHI),
			formatValue(rec.DHI),
			formatValue(rec.BNI),
			formatValue(rec.CloudCover),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadProcessed reads a processed CSV table back into aggregated records.
// Column order is taken from the header so hand-edited or extended tables
// still load.
func ReadProcessed(r io.Reader) ([]AggregatedRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, c := range header {
		idx[c] = i
	}
	timeIdx, ok := idx["time"]
	if !ok {
		return nil, fmt.Errorf("header missing %q column", "time")
	}

	var records []AggregatedRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if timeIdx >= len(row) {
			continue
		}

		ts, err := parseProcessedTime(row[timeIdx])
		if err != nil {
			continue
		}

		records = append(records, AggregatedRecord{
			Time:       ts,
			GHI:        readValue(row, idx, ColGHI),
			DHI:        readValue(row, idx, ColDHI),
			BNI:        readValue(row, idx, ColBNI),
			CloudCover: readValue(row, idx, ColCloudCover),
		})
	}

	return records, nil
}

func parseProcessedTime(s string) (time.Time, error) {
	for _, layout := range []string{processedTimeLayout, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func formatValue(v Value) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.V, 'g', -1, 64)
}

func readValue(row []string, idx map[string]int, name string) Value {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return None()
	}
	if row[i] == "" {
		return None()
	}
	v, err := strconv.ParseFloat(row[i], 64)
	if err != nil {
		return None()
	}
	return Some(v)
}
