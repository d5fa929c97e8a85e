package compare

// stats.go - per-component comparison statistics over matched records.
//
// Degenerate inputs (no points, a single point, zero variance) are
// reported through explicit Defined flags instead of letting NaN or Inf
// propagate into output files.

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Component names reported by the statistics engine. The satellite-side
// BNI is compared against the ground-side DNI and reported as DNI.
var Components = []string{"GHI", "DHI", "DNI"}

// RatioEpsilon is the smallest ground DHI for which the GHI/DHI ratio is
// still considered defined.
const RatioEpsilon = 1e-9

// Regression holds an ordinary-least-squares fit of satellite (dependent)
// on ground (independent) values.
type Regression struct {
	Slope     float64
	Intercept float64
	R2        float64
	Defined   bool
}

// ComponentStats summarizes one irradiance component for one station.
type ComponentStats struct {
	Component string
	N         int

	MeanBias    float64
	MeanDefined bool

	BiasStdDev    float64
	StdDevDefined bool

	Regression Regression
}

// componentPairs extracts (ground, satellite) series for a component.
func componentPairs(matched []MatchedRecord, component string) (x, y []float64) {
	x = make([]float64, 0, len(matched))
	y = make([]float64, 0, len(matched))
	for _, r := range matched {
		switch component {
		case "GHI":
			x = append(x, r.GndGHI)
			y = append(y, r.SatGHI)
		case "DHI":
			x = append(x, r.GndDHI)
			y = append(y, r.SatDHI)
		case "DNI":
			x = append(x, r.GndDNI)
			y = append(y, r.SatBNI)
		}
	}
	return x, y
}

// Regress fits y = slope*x + intercept by ordinary least squares and
// reports the coefficient of determination. Fewer than two points or a
// zero-variance series yields an undefined result rather than a numeric
// error.
func Regress(x, y []float64) Regression {
	if len(x) < 2 || len(x) != len(y) {
		return Regression{}
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return Regression{}
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	r2 := stat.RSquared(x, y, nil, alpha, beta)

	return Regression{
		Slope:     beta,
		Intercept: alpha,
		R2:        r2,
		Defined:   true,
	}
}

// Compute derives the per-component statistics for one station's matched
// records. With an empty match set every statistic is undefined and the
// caller reports insufficient data.
func Compute(matched []MatchedRecord) []ComponentStats {
	out := make([]ComponentStats, 0, len(Components))

	for _, comp := range Components {
		x, y := componentPairs(matched, comp)

		cs := ComponentStats{Component: comp, N: len(x)}

		bias := make([]float64, len(x))
		for i := range x {
			bias[i] = y[i] - x[i]
		}

		if len(bias) >= 1 {
			cs.MeanBias = stat.Mean(bias, nil)
			cs.MeanDefined = true
		}
		if len(bias) >= 2 {
			cs.BiasStdDev = stat.StdDev(bias, nil)
			cs.StdDevDefined = true
		}
		cs.Regression = Regress(x, y)

		out = append(out, cs)
	}

	return out
}

// RatioPoint is one ground GHI/DHI ratio sample.
type RatioPoint struct {
	Time  time.Time
	Ratio float64
}

// GroundRatioSeries computes the ground-measured GHI/DHI ratio per matched
// record. Records whose ground DHI is at or below RatioEpsilon are skipped
// entirely: the ratio is undefined there, never infinity.
func GroundRatioSeries(matched []MatchedRecord) []RatioPoint {
	out := make([]RatioPoint, 0, len(matched))
	for _, r := range matched {
		if r.GndDHI <= RatioEpsilon {
			continue
		}
		out = append(out, RatioPoint{Time: r.Time, Ratio: r.GndGHI / r.GndDHI})
	}
	return out
}

// CloudBiasPoint pairs satellite cloud coverage with the GHI bias at the
// same instant.
type CloudBiasPoint struct {
	CloudCover float64
	GHIBias    float64
}

// CloudBiasPairs extracts (cloud coverage, GHI bias) pairs for the matched
// records that carry cloud coverage. Used descriptively for plotting.
func CloudBiasPairs(matched []MatchedRecord) []CloudBiasPoint {
	out := make([]CloudBiasPoint, 0, len(matched))
	for _, r := range matched {
		if !r.CloudCover.Valid {
			continue
		}
		out = append(out, CloudBiasPoint{CloudCover: r.CloudCover.V, GHIBias: r.GHIBias()})
	}
	return out
}
