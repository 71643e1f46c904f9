package domain

import "strings"

// Known flight names.
const (
	FlightRateLimitDisableBaselineCheck = "PXRateLimitDisableBaselineCheck"
)

// Flights is a case-insensitive set of enabled feature flights for one
// request, parsed from the x-ms-flight header.
type Flights struct {
	names map[string]bool
}

// ParseFlights builds a flight set from a comma-separated header value.
// Blank entries are ignored.
func ParseFlights(header string) *Flights {
	f := &Flights{names: make(map[string]bool)}
	for _, name := range strings.Split(header, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			f.names[strings.ToLower(name)] = true
		}
	}
	return f
}

// Enabled reports whether the named flight is on. Nil receivers report
// false so callers can pass an absent flight set straight through.
func (f *Flights) Enabled(name string) bool {
	if f == nil {
		return false
	}
	return f.names[strings.ToLower(name)]
}

// Count returns the number of enabled flights.
func (f *Flights) Count() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}
