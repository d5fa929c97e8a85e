package solrad

import (
	"testing"
	"time"
)

func minuteSamples(start time.Time, ghi []float64) []Sample {
	samples := make([]Sample, len(ghi))
	for i, v := range ghi {
		samples[i] = Sample{
			Time: start.Add(time.Duration(i) * time.Minute),
			GHI:  Some(v),
		}
	}
	return samples
}

// TestAggregateBucketMean checks the arithmetic mean over one full
// 10-minute bucket: GHI 100,102,...,118 at 09:00-09:09 averages to 109.
func TestAggregateBucketMean(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	ghi := make([]float64, 10)
	for i := range ghi {
		ghi[i] = 100 + float64(2*i)
	}

	records, err := Aggregate(minuteSamples(start, ghi))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(records))
	}
	if !records[0].Time.Equal(start) {
		t.Errorf("expected bucket start %v, got %v", start, records[0].Time)
	}
	if !records[0].GHI.Valid || records[0].GHI.V != 109 {
		t.Errorf("expected mean GHI 109, got %+v", records[0].GHI)
	}
}

// TestAggregateGridAlignment verifies that bucket boundaries come from
// UTC midnight, not from where the data happens to start.
func TestAggregateGridAlignment(t *testing.T) {
	// Data starting mid-bucket at 09:07.
	start := time.Date(2024, 1, 1, 9, 7, 0, 0, time.UTC)
	records, err := Aggregate(minuteSamples(start, []float64{1, 2, 3, 4, 5, 6}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, rec := range records {
		midnight := time.Date(rec.Time.Year(), rec.Time.Month(), rec.Time.Day(), 0, 0, 0, 0, time.UTC)
		if rec.Time.Sub(midnight)%BucketSize != 0 {
			t.Errorf("bucket %v is not aligned to the 10-minute grid", rec.Time)
		}
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(records))
	}
	// 09:00 bucket holds 09:07-09:09, 09:10 bucket holds 09:10-09:12.
	if records[0].GHI.V != 2 {
		t.Errorf("expected first bucket mean 2, got %v", records[0].GHI.V)
	}
	if records[1].GHI.V != 5 {
		t.Errorf("expected second bucket mean 5, got %v", records[1].GHI.V)
	}
}

// TestAggregateRegularGrid verifies that a gap in the input produces an
// explicit empty bucket rather than a hole in the output, and that
// timestamps are unique and ascending.
func TestAggregateRegularGrid(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Time: t0, GHI: Some(10)},
		{Time: t0.Add(25 * time.Minute), GHI: Some(30)},
	}

	records, err := Aggregate(samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 buckets (09:00, 09:10, 09:20), got %d", len(records))
	}

	seen := map[int64]bool{}
	for i, rec := range records {
		if seen[rec.Time.Unix()] {
			t.Errorf("duplicate bucket timestamp %v", rec.Time)
		}
		seen[rec.Time.Unix()] = true
		if i > 0 && !records[i-1].Time.Before(rec.Time) {
			t.Errorf("buckets not ascending at index %d", i)
		}
	}

	if records[1].GHI.Valid {
		t.Errorf("expected empty bucket at 09:10 to carry no data, got %+v", records[1].GHI)
	}
}

// TestAggregatePartialComponents verifies that an invalid field only
// drops out of its own component's mean.
func TestAggregatePartialComponents(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Time: t0, GHI: Some(100), DHI: Some(40)},
		{Time: t0.Add(time.Minute), GHI: Some(200), DHI: None()},
	}

	records, err := Aggregate(samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].GHI.V != 150 {
		t.Errorf("expected GHI mean 150, got %v", records[0].GHI.V)
	}
	if records[0].DHI.V != 40 {
		t.Errorf("expected DHI mean 40 over the single valid sample, got %v", records[0].DHI.V)
	}
	if records[0].BNI.Valid {
		t.Errorf("expected BNI absent, got %+v", records[0].BNI)
	}
}

// TestAggregateEmpty verifies the per-station failure path for an empty
// raw file.
func TestAggregateEmpty(t *testing.T) {
	if _, err := Aggregate(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}
