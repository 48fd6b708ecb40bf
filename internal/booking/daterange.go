package booking

import "time"

// StayRange is a half-open date range [CheckIn, CheckOut): the checkout
// date itself is not a consumed night. Both endpoints are UTC midnights;
// all engine date arithmetic happens at day granularity in UTC.
type StayRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Day truncates t to UTC midnight.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewStayRange builds a StayRange, normalizing both endpoints to UTC
// midnight. It does not validate; call Validate before using the range.
func NewStayRange(checkIn, checkOut time.Time) StayRange {
	return StayRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
}

// Validate rejects inverted and zero-length ranges. A zero-length range
// (checkIn == checkOut) is invalid input, not "always available".
func (r StayRange) Validate() error {
	if !r.CheckOut.After(r.CheckIn) {
		return &ValidationError{Field: "check_out", Reason: "check_out must be after check_in"}
	}
	return nil
}

// Nights returns the number of nights covered by the range.
func (r StayRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn) / (24 * time.Hour))
}

// Dates returns every night in the range in chronological order. The
// checkout date is excluded.
func (r StayRange) Dates() []time.Time {
	n := r.Nights()
	if n <= 0 {
		return nil
	}
	dates := make([]time.Time, 0, n)
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// Contains reports whether the night starting at d is part of the range.
func (r StayRange) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// Overlaps reports whether two half-open ranges share at least one night.
// Back-to-back stays (one checking out the day the other checks in) do
// not overlap.
func (r StayRange) Overlaps(other StayRange) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

// dateKey renders a UTC midnight as a map key.
func dateKey(d time.Time) string {
	return d.Format("2006-01-02")
}
