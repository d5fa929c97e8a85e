// Package solrad provides CAMS solar radiation data processing utilities.
// This package handles the csv_expert time series format, 10-minute
// aggregation, and quality-controlled ground measurement files.
package solrad

import "time"

// Value is a measurement field that may be absent. Missing or sentinel
// fields are carried as Valid=false instead of NaN so that absence never
// leaks into downstream arithmetic.
type Value struct {
	V     float64
	Valid bool
}

// Some returns a present Value.
func Some(v float64) Value {
	return Value{V: v, Valid: true}
}

// None returns an absent Value.
func None() Value {
	return Value{}
}

// Scale multiplies a present Value, leaving absent ones untouched.
func (v Value) Scale(f float64) Value {
	if !v.Valid {
		return v
	}
	return Value{V: v.V * f, Valid: true}
}

// Sample is one native-resolution (nominally 1-minute) satellite record.
type Sample struct {
	Time       time.Time // observation period start, UTC
	GHI        Value
	DHI        Value
	BNI        Value
	CloudCover Value
}

// AggregatedRecord is one 10-minute bucket of averaged satellite data.
// Timestamps are bucket starts aligned to multiples of 10 minutes from
// UTC midnight.
type AggregatedRecord struct {
	Time       time.Time
	GHI        Value
	DHI        Value
	BNI        Value
	CloudCover Value
}

// GroundMeasurement is one row of a quality-controlled ground station file.
// FlagSum is the sum of all QC flag columns present in the file; a row is
// eligible for comparison only when every flag is zero.
type GroundMeasurement struct {
	Time    time.Time // UTC
	GHI     Value
	DHI     Value
	DNI     Value
	FlagSum int
}

// QCValid reports whether the row passed all quality-control flags.
func (m GroundMeasurement) QCValid() bool {
	return m.FlagSum == 0
}

// BucketSize is the fixed aggregation interval.
const BucketSize = 10 * time.Minute

// WhPerMinToW converts CAMS 1-minute energy values (Wh/m^2) to mean
// power (W/m^2).
const WhPerMinToW = 60.0

// SchemaVersion is the current processed-file schema version.
const SchemaVersion = 1
