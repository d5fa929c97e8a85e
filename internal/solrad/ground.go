package solrad

// ground.go - parser for quality-controlled ground station files
// (QC_<station>_<year>_flagged.csv).
//
// Each row carries a UTC timestamp, the measured GHI/DHI/DNI components
// and a set of QC flag columns. Which flag columns exist varies between
// stations; a row is comparison-eligible only when every flag present in
// the file is zero.

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// GroundTimeColumn is the timestamp column of QC ground files.
const GroundTimeColumn = "Datetime (UTC)"

// QC flag columns recognized in ground files. Files may carry any subset.
var GroundFlagColumns = []string{
	"flag_ghi", "flag_dhi", "flag_dni",
	"flag_ghi_rare", "flag_dhi_rare", "flag_dni_rare",
	"flag_comp1", "flag_comp2",
}

var groundTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
}

// ReadGround parses a QC ground measurement stream. All rows are returned,
// flagged and unflagged alike; eligibility filtering is the Aligner's job.
func ReadGround(r io.Reader) ([]GroundMeasurement, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, c := range header {
		idx[strings.TrimSpace(c)] = i
	}
	timeIdx, ok := idx[GroundTimeColumn]
	if !ok {
		return nil, fmt.Errorf("header missing %q column", GroundTimeColumn)
	}

	var flagIdx []int
	for _, name := range GroundFlagColumns {
		if i, ok := idx[name]; ok {
			flagIdx = append(flagIdx, i)
		}
	}

	var rows []GroundMeasurement
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

		ts, err := parseGroundTime(row[timeIdx])
		if err != nil {
			continue
		}

		m := GroundMeasurement{
			Time: ts,
			GHI:  readValue(row, idx, "GHI"),
			DHI:  readValue(row, idx, "DHI"),
			DNI:  readValue(row, idx, "DNI"),
		}
		for _, fi := range flagIdx {
			if fi >= len(row) {
				continue
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(row[fi]), 64)
			if err != nil {
				continue
			}
			m.FlagSum += int(f)
		}

		rows = append(rows, m)
	}

	return rows, nil
}

func parseGroundTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range groundTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
