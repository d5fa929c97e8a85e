package solrad

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// TestProcessedRoundTrip verifies that empty-bucket markers and absent
// components survive a write/read cycle.
func TestProcessedRoundTrip(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	records := []AggregatedRecord{
		{Time: t0, GHI: Some(109.5), DHI: Some(40), BNI: Some(80), CloudCover: Some(12.5)},
		{Time: t0.Add(BucketSize)}, // empty bucket
		{Time: t0.Add(2 * BucketSize), GHI: Some(120), DHI: None(), BNI: Some(90)},
	}

	var buf bytes.Buffer
	if err := WriteProcessed(&buf, records); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadProcessed(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(got))
	}
	for i := range records {
		if !got[i].Time.Equal(records[i].Time) {
			t.Errorf("record %d: time %v != %v", i, got[i].Time, records[i].Time)
		}
		if got[i].GHI != records[i].GHI || got[i].DHI != records[i].DHI ||
			got[i].BNI != records[i].BNI || got[i].CloudCover != records[i].CloudCover {
			t.Errorf("record %d changed across round trip: %+v != %+v", i, got[i], records[i])
		}
	}
}

// TestWriteProcessedDeterministic verifies bit-identical output for
// identical input.
func TestWriteProcessedDeterministic(t *testing.T) {
	records := []AggregatedRecord{
		{Time: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), GHI: Some(1.0 / 3.0), DHI: Some(0.25), BNI: Some(0)},
	}

	var a, b bytes.Buffer
	if err := WriteProcessed(&a, records); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteProcessed(&b, records); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("identical inputs produced different output bytes")
	}
}

// TestReadProcessedColumnOrder verifies that column lookup follows the
// header, not fixed positions.
func TestReadProcessedColumnOrder(t *testing.T) {
	input := "DHI,time,GHI,BNI,Cloud coverage\n" +
		"12,2024-01-01 10:00:00,34,56,78\n"

	got, err := ReadProcessed(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].GHI.V != 34 || got[0].DHI.V != 12 || got[0].BNI.V != 56 {
		t.Errorf("columns misassigned: %+v", got[0])
	}
}
