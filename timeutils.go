package surveydashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day in minutes since midnight, independent of
// any calendar date. Survey times never cross midnight.
type ClockTime int

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }
func (c ClockTime) Valid() bool { return c >= 0 && c < 24*60 }
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// ParseClockTime accepts the time spellings found in survey workbooks:
// "HH:MM:SS", "HH:MM", a bare hour "HH", or a fraction-of-day float as
// written by spreadsheet tools ("0.354166...").
func ParseClockTime(raw string) (ClockTime, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty time value")
	}
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return 0, fmt.Errorf("invalid time %q", raw)
		}
		h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0, fmt.Errorf("invalid time %q: %w", raw, err)
		}
		m := 0
		if len(parts) > 1 {
			m, err = strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return 0, fmt.Errorf("invalid time %q: %w", raw, err)
			}
		}
		if h < 0 || h > 23 || m < 0 || m > 59 {
			return 0, fmt.Errorf("time %q out of range", raw)
		}
		return ClockTime(h*60 + m), nil
	}
	// fraction of a day, or a bare hour
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", raw, err)
	}
	if f >= 0 && f < 1 {
		return ClockTime(int(math.Floor(f * 24 * 60))), nil
	}
	if f == math.Trunc(f) && f >= 0 && f < 24 {
		return ClockTime(int(f) * 60), nil
	}
	return 0, fmt.Errorf("time %q out of range", raw)
}

// HourLabel renders an hour as the "HH:00" label used in output column
// names and time_bin values.
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

func iso8601Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
