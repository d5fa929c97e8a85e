package solrad

// aggregate.go - 10-minute bucketing of native-resolution CAMS samples.

import (
	"fmt"
	"time"
)

type accumulator struct {
	sum   float64
	count int
}

func (a *accumulator) add(v Value) {
	if !v.Valid {
		return
	}
	a.sum += v.V
	a.count++
}

func (a *accumulator) mean() Value {
	if a.count == 0 {
		return None()
	}
	return Some(a.sum / float64(a.count))
}

type bucket struct {
	ghi   accumulator
	dhi   accumulator
	bni   accumulator
	cloud accumulator
}

// BucketStart floors a timestamp to the enclosing 10-minute bucket.
// Buckets are anchored at multiples of 10 minutes from UTC midnight,
// independent of where the data starts.
func BucketStart(t time.Time) time.Time {
	return t.UTC().Truncate(BucketSize)
}

// Aggregate resamples native samples onto the fixed 10-minute grid. Each
// bucket covers the half-open interval [start, start+10min) and each
// component is the arithmetic mean of the valid samples that fall inside.
// The output covers the full span of the input as a regular grid: buckets
// with no contributing samples are emitted with absent Values rather than
// omitted, so downstream alignment can index by fixed frequency. Output is
// ascending with no duplicate timestamps.
func Aggregate(samples []Sample) ([]AggregatedRecord, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to aggregate")
	}

	buckets := make(map[int64]*bucket)
	var first, last time.Time

	for _, s := range samples {
		start := BucketStart(s.Time)
		if first.IsZero() || start.Before(first) {
			first = start
		}
		if last.IsZero() || start.After(last) {
			last = start
		}

		b, ok := buckets[start.Unix()]
		if !ok {
			b = &bucket{}
			buckets[start.Unix()] = b
		}
		b.ghi.add(s.GHI)
		b.dhi.add(s.DHI)
		b.bni.add(s.BNI)
		b.cloud.add(s.CloudCover)
	}

	n := int(last.Sub(first)/BucketSize) + 1
	records := make([]AggregatedRecord, 0, n)

	for ts := first; !ts.After(last); ts = ts.Add(BucketSize) {
		rec := AggregatedRecord{Time: ts}
		if b, ok := buckets[ts.Unix()]; ok {
			rec.GHI = b.ghi.mean()
			rec.DHI = b.dhi.mean()
			rec.BNI = b.bni.mean()
			rec.CloudCover = b.cloud.mean()
		}
		records = append(records, rec)
	}

	return records, nil
}
