package util

import (
	"fmt"
	"time"
)

// ISOLayout is the layout used for every timestamp written into a change record.
const ISOLayout = time.RFC3339Nano

// Clock produces record timestamps in a fixed time zone.
type Clock struct {
	location *time.Location
	now      func() time.Time
}

// NewClock returns a clock for the named time zone. An empty name or "Local"
// selects the host zone. A nil now function defaults to time.Now.
func NewClock(timezone string, now func() time.Time) (*Clock, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{location: loc, now: now}, nil
}

// LoadLocation resolves a time zone name.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, America/New_York, Asia/Shanghai, Europe/London", timezone, err)
	}
	return loc, nil
}

// Now returns the current time in the clock's zone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.location)
}

// Location returns the clock's zone.
func (c *Clock) Location() *time.Location {
	return c.location
}

// FormatISO renders t as an ISO-8601 timestamp.
func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}
