package compare

import (
	"reflect"
	"testing"
	"time"

	"github.com/wetsa-lab/solrad-apps/internal/solrad"
)

func satRecord(t time.Time, v float64) solrad.AggregatedRecord {
	return solrad.AggregatedRecord{
		Time: t,
		GHI:  solrad.Some(v),
		DHI:  solrad.Some(v / 2),
		BNI:  solrad.Some(v * 2),
	}
}

func gndRecord(t time.Time, v float64, flags int) solrad.GroundMeasurement {
	return solrad.GroundMeasurement{
		Time:    t,
		GHI:     solrad.Some(v),
		DHI:     solrad.Some(v / 2),
		DNI:     solrad.Some(v * 2),
		FlagSum: flags,
	}
}

// satDay builds a full day of 10-minute records starting at midnight.
func satDay(day time.Time) []solrad.AggregatedRecord {
	var out []solrad.AggregatedRecord
	for ts := day; ts.Before(day.Add(24 * time.Hour)); ts = ts.Add(solrad.BucketSize) {
		out = append(out, satRecord(ts, 100))
	}
	return out
}

// TestAlignIntersection verifies that the output is exactly the
// timestamp intersection of both inputs, ascending.
func TestAlignIntersection(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	sat := []solrad.AggregatedRecord{
		satRecord(t0, 100),
		satRecord(t0.Add(10*time.Minute), 110),
		satRecord(t0.Add(20*time.Minute), 120),
	}
	gnd := []solrad.GroundMeasurement{
		gndRecord(t0.Add(10*time.Minute), 105, 0),
		gndRecord(t0.Add(30*time.Minute), 130, 0),
	}

	matched := Align(sat, gnd)
	if len(matched) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matched))
	}
	if !matched[0].Time.Equal(t0.Add(10 * time.Minute)) {
		t.Errorf("unexpected matched timestamp %v", matched[0].Time)
	}
	if matched[0].SatGHI != 110 || matched[0].GndGHI != 105 {
		t.Errorf("wrong pairing: %+v", matched[0])
	}
}

// TestAlignQualityFilter verifies that flagged ground rows never match.
func TestAlignQualityFilter(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sat := []solrad.AggregatedRecord{satRecord(t0, 100)}
	gnd := []solrad.GroundMeasurement{gndRecord(t0, 95, 1)}

	if matched := Align(sat, gnd); len(matched) != 0 {
		t.Fatalf("expected no matches against flagged ground data, got %d", len(matched))
	}
}

// TestAlignPartialRecords verifies that a missing component on either
// side drops the timestamp instead of null-filling it.
func TestAlignPartialRecords(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	sat := []solrad.AggregatedRecord{
		{Time: t0, GHI: solrad.Some(100), DHI: solrad.None(), BNI: solrad.Some(200)},
	}
	gnd := []solrad.GroundMeasurement{gndRecord(t0, 95, 0)}

	if matched := Align(sat, gnd); len(matched) != 0 {
		t.Fatalf("expected no matches with absent satellite DHI, got %d", len(matched))
	}

	sat = []solrad.AggregatedRecord{satRecord(t0, 100)}
	gnd = []solrad.GroundMeasurement{
		{Time: t0, GHI: solrad.Some(95), DHI: solrad.Some(40), DNI: solrad.None()},
	}

	if matched := Align(sat, gnd); len(matched) != 0 {
		t.Fatalf("expected no matches with absent ground DNI, got %d", len(matched))
	}
}

// TestAlignOverlapWindow covers the scenario of a station with a full
// satellite day but ground data only valid 06:00-18:00: the match set
// must stay inside that window with at most 73 ten-minute steps.
func TestAlignOverlapWindow(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sat := satDay(day)

	winStart := day.Add(6 * time.Hour)
	winEnd := day.Add(18 * time.Hour)

	var gnd []solrad.GroundMeasurement
	for ts := winStart; !ts.After(winEnd); ts = ts.Add(solrad.BucketSize) {
		gnd = append(gnd, gndRecord(ts, 90, 0))
	}

	matched := Align(sat, gnd)
	if len(matched) == 0 || len(matched) > 73 {
		t.Fatalf("expected 1..73 matches inside the window, got %d", len(matched))
	}
	for _, m := range matched {
		if m.Time.Before(winStart) || m.Time.After(winEnd) {
			t.Errorf("match %v outside [06:00, 18:00]", m.Time)
		}
	}
}

// TestAlignNoOverlap verifies the empty result for disjoint inputs.
func TestAlignNoOverlap(t *testing.T) {
	sat := []solrad.AggregatedRecord{
		satRecord(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 100),
	}
	gnd := []solrad.GroundMeasurement{
		gndRecord(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 90, 0),
	}

	matched := Align(sat, gnd)
	if len(matched) != 0 {
		t.Fatalf("expected empty match set, got %d", len(matched))
	}
	// Statistics over the empty set must stay undefined, not panic.
	for _, cs := range Compute(matched) {
		if cs.MeanDefined || cs.Regression.Defined {
			t.Errorf("%s: expected undefined statistics for empty input", cs.Component)
		}
	}
}

// TestAlignDeterminism verifies bit-identical output across runs on the
// same input.
func TestAlignDeterminism(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sat := satDay(day)
	var gnd []solrad.GroundMeasurement
	for i, ts := 0, day; i < 50; i, ts = i+1, ts.Add(solrad.BucketSize) {
		gnd = append(gnd, gndRecord(ts, float64(80+i), i%7))
	}

	a := Align(sat, gnd)
	b := Align(sat, gnd)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs produced different matches")
	}
}
