package compare

import (
	"math"
	"testing"
	"time"

	"github.com/wetsa-lab/solrad-apps/internal/solrad"
)

func linearMatched(n int, slope, intercept float64) []MatchedRecord {
	t0 := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	out := make([]MatchedRecord, n)
	for i := range out {
		g := float64(10 * (i + 1))
		s := slope*g + intercept
		out[i] = MatchedRecord{
			Time:   t0.Add(time.Duration(i) * solrad.BucketSize),
			GndGHI: g, SatGHI: s,
			GndDHI: g, SatDHI: s,
			GndDNI: g, SatBNI: s,
		}
	}
	return out
}

// TestRegressPerfectLinear fits satellite = 2*ground + 5 without noise.
func TestRegressPerfectLinear(t *testing.T) {
	matched := linearMatched(20, 2, 5)

	for _, cs := range Compute(matched) {
		reg := cs.Regression
		if !reg.Defined {
			t.Fatalf("%s: expected defined regression", cs.Component)
		}
		if math.Abs(reg.Slope-2) > 1e-9 {
			t.Errorf("%s: slope %v, want 2", cs.Component, reg.Slope)
		}
		if math.Abs(reg.Intercept-5) > 1e-9 {
			t.Errorf("%s: intercept %v, want 5", cs.Component, reg.Intercept)
		}
		if math.Abs(reg.R2-1) > 1e-9 {
			t.Errorf("%s: R² %v, want 1", cs.Component, reg.R2)
		}
	}
}

// TestRegressDegenerate verifies undefined results for fewer than two
// points and for zero-variance input, with no numeric error.
func TestRegressDegenerate(t *testing.T) {
	if reg := Regress([]float64{1}, []float64{2}); reg.Defined {
		t.Error("single point must be undefined")
	}
	if reg := Regress(nil, nil); reg.Defined {
		t.Error("empty input must be undefined")
	}
	if reg := Regress([]float64{5, 5, 5}, []float64{1, 2, 3}); reg.Defined {
		t.Error("zero x-variance must be undefined")
	}
	if reg := Regress([]float64{1, 2, 3}, []float64{7, 7, 7}); reg.Defined {
		t.Error("zero y-variance must be undefined")
	}
}

// TestComputeBias verifies the mean bias and its standard deviation.
func TestComputeBias(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	matched := []MatchedRecord{
		{Time: t0, GndGHI: 100, SatGHI: 110, GndDHI: 1, SatDHI: 1, GndDNI: 1, SatBNI: 1},
		{Time: t0.Add(solrad.BucketSize), GndGHI: 100, SatGHI: 130, GndDHI: 1, SatDHI: 1, GndDNI: 1, SatBNI: 1},
	}

	stats := Compute(matched)
	ghi := stats[0]
	if ghi.Component != "GHI" {
		t.Fatalf("unexpected component order: %v", ghi.Component)
	}
	if !ghi.MeanDefined || math.Abs(ghi.MeanBias-20) > 1e-12 {
		t.Errorf("mean bias %v, want 20", ghi.MeanBias)
	}
	// Sample standard deviation of {10, 30}.
	if !ghi.StdDevDefined || math.Abs(ghi.BiasStdDev-math.Sqrt(200)) > 1e-12 {
		t.Errorf("bias stddev %v, want %v", ghi.BiasStdDev, math.Sqrt(200))
	}
}

// TestComputeSinglePoint verifies that one matched record defines the
// mean but leaves stddev and regression undefined.
func TestComputeSinglePoint(t *testing.T) {
	matched := linearMatched(1, 1, 0)
	for _, cs := range Compute(matched) {
		if !cs.MeanDefined {
			t.Errorf("%s: mean should be defined for n=1", cs.Component)
		}
		if cs.StdDevDefined {
			t.Errorf("%s: stddev must be undefined for n=1", cs.Component)
		}
		if cs.Regression.Defined {
			t.Errorf("%s: regression must be undefined for n=1", cs.Component)
		}
	}
}

// TestGroundRatioZeroDHI verifies that a zero ground DHI yields no ratio
// point rather than infinity.
func TestGroundRatioZeroDHI(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	matched := []MatchedRecord{
		{Time: t0, GndGHI: 100, GndDHI: 0},
		{Time: t0.Add(solrad.BucketSize), GndGHI: 100, GndDHI: 50},
	}

	ratio := GroundRatioSeries(matched)
	if len(ratio) != 1 {
		t.Fatalf("expected 1 ratio point, got %d", len(ratio))
	}
	if math.IsInf(ratio[0].Ratio, 0) || ratio[0].Ratio != 2 {
		t.Errorf("expected ratio 2, got %v", ratio[0].Ratio)
	}
}

// TestCloudBiasPairs verifies that only records carrying cloud coverage
// contribute pairs.
func TestCloudBiasPairs(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	matched := []MatchedRecord{
		{Time: t0, GndGHI: 100, SatGHI: 130, CloudCover: solrad.Some(80)},
		{Time: t0.Add(solrad.BucketSize), GndGHI: 100, SatGHI: 90},
	}

	pairs := CloudBiasPairs(matched)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].CloudCover != 80 || pairs[0].GHIBias != 30 {
		t.Errorf("unexpected pair %+v", pairs[0])
	}
}
