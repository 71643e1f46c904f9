package timeutil

import "time"

// Now returns the current time in UTC. Blocklist expiries and detector
// buckets all compare against this, so every clock read goes through
// here to keep timezone handling consistent.
func Now() time.Time {
	return time.Now().UTC()
}

// ParseRFC3339 parses an RFC 3339 timestamp and normalizes it to UTC.
func ParseRFC3339(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
