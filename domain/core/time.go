package core

import "time"

// Timestamp wraps time.Time for domain use
type Timestamp time.Time

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now().UTC())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// String returns RFC3339 representation
func (t Timestamp) String() string {
	return time.Time(t).Format(time.RFC3339)
}

// MarshalJSON encodes the timestamp as an RFC3339 string.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

// UnmarshalJSON decodes an RFC3339 string.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	return (*time.Time)(t).UnmarshalJSON(data)
}

// DateLayout is the day/month/year cell format used by time-raw-concept
// min/max fields. Cells are parsed explicitly, never coerced at load time.
const DateLayout = "02/01/2006"

// ParseCellDate parses a workbook date cell in DateLayout.
func ParseCellDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
