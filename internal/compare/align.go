// Package compare joins aggregated satellite records against ground
// station measurements and derives the comparison statistics.
package compare

import (
	"sort"
	"time"

	"github.com/wetsa-lab/solrad-apps/internal/solrad"
)

// MatchedRecord pairs one satellite bucket with the ground measurement at
// the same instant. All six irradiance components are present by
// construction; cloud cover is carried through when the satellite record
// has it.
type MatchedRecord struct {
	Time   time.Time
	SatGHI float64
	SatDHI float64
	SatBNI float64
	GndGHI float64
	GndDHI float64
	GndDNI float64

	CloudCover solrad.Value
}

// GHIBias returns satellite minus ground GHI in W/m^2.
func (r MatchedRecord) GHIBias() float64 { return r.SatGHI - r.GndGHI }

// DHIBias returns satellite minus ground DHI in W/m^2.
func (r MatchedRecord) DHIBias() float64 { return r.SatDHI - r.GndDHI }

// DNIBias returns satellite BNI minus ground DNI in W/m^2.
func (r MatchedRecord) DNIBias() float64 { return r.SatBNI - r.GndDNI }

// Align joins a satellite sequence and a ground sequence on exact
// timestamp equality after snapping both to the UTC 10-minute grid.
//
// Only ground rows passing quality control are eligible. A match requires
// all three components valid on both sides; unmatched or partial
// timestamps are dropped, never interpolated or null-filled. Output is
// ascending by timestamp and deterministic for identical inputs; with no
// overlap it is simply empty.
func Align(sat []solrad.AggregatedRecord, gnd []solrad.GroundMeasurement) []MatchedRecord {
	ground := make(map[int64]solrad.GroundMeasurement, len(gnd))
	for _, m := range gnd {
		if !m.QCValid() {
			continue
		}
		if !m.GHI.Valid || !m.DHI.Valid || !m.DNI.Valid {
			continue
		}
		key := solrad.BucketStart(m.Time).Unix()
		if _, dup := ground[key]; dup {
			continue // first row wins on duplicate ground timestamps
		}
		ground[key] = m
	}

	matched := make([]MatchedRecord, 0, len(sat))
	seen := make(map[int64]bool, len(sat))

	for _, rec := range sat {
		if !rec.GHI.Valid || !rec.DHI.Valid || !rec.BNI.Valid {
			continue
		}
		ts := solrad.BucketStart(rec.Time)
		key := ts.Unix()
		if seen[key] {
			continue
		}
		m, ok := ground[key]
		if !ok {
			continue
		}
		seen[key] = true

		matched = append(matched, MatchedRecord{
			Time:       ts,
			SatGHI:     rec.GHI.V,
			SatDHI:     rec.DHI.V,
			SatBNI:     rec.BNI.V,
			GndGHI:     m.GHI.V,
			GndDHI:     m.DHI.V,
			GndDNI:     m.DNI.V,
			CloudCover: rec.CloudCover,
		})
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Time.Before(matched[j].Time)
	})
	return matched
}
