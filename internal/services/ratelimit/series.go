package ratelimit

import "time"

const (
	// The observation window is a ring of fixed-width buckets. Outcomes
	// older than the full window fall out as their bucket is reused.
	numBuckets     = 12
	bucketDuration = 10 * time.Minute
)

// outcomeBucket accumulates good/bad outcomes for one bucketDuration
// slice of time. epoch identifies which slice the counts belong to, so a
// reused ring slot can be detected and reset lazily.
type outcomeBucket struct {
	epoch int64
	good  int64
	bad   int64
}

// series is a rolling window of request outcomes for one dimension value
// (a single account, a single client IP, or the whole system). It is not
// safe for concurrent use; the detector serializes access.
type series struct {
	buckets  [numBuckets]outcomeBucket
	lastSeen time.Time
}

func bucketEpoch(now time.Time) int64 {
	return now.Unix() / int64(bucketDuration/time.Second)
}

// add records one outcome in the bucket covering now.
func (s *series) add(now time.Time, failed bool) {
	epoch := bucketEpoch(now)
	b := &s.buckets[epoch%numBuckets]
	if b.epoch != epoch {
		b.epoch = epoch
		b.good = 0
		b.bad = 0
	}
	if failed {
		b.bad++
	} else {
		b.good++
	}
	s.lastSeen = now
}

// totals sums the outcomes still inside the window ending at now.
func (s *series) totals(now time.Time) (good, bad int64) {
	epoch := bucketEpoch(now)
	for i := range s.buckets {
		b := &s.buckets[i]
		if b.epoch > epoch-numBuckets && b.epoch <= epoch {
			good += b.good
			bad += b.bad
		}
	}
	return good, bad
}

// failureRate returns bad/(good+bad) and the total count for the window.
func (s *series) failureRate(now time.Time) (rate float64, total int64) {
	good, bad := s.totals(now)
	total = good + bad
	if total == 0 {
		return 0, 0
	}
	return float64(bad) / float64(total), total
}
