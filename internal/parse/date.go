package parse

import (
	"fmt"
	"strings"
	"time"
)

// DefaultStartDate is used when a historical run is requested without a start date.
const DefaultStartDate = "2025-01-01"

// Date parses a YYYY-MM-DD calendar date as midnight in loc.
func Date(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

// DateRange parses an inclusive date range. An empty start falls back to DefaultStartDate
// and an empty end to the day before now.
func DateRange(startRaw, endRaw string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if strings.TrimSpace(startRaw) == "" {
		startRaw = DefaultStartDate
	}
	start, err := Date(startRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date: %w", err)
	}

	var end time.Time
	if strings.TrimSpace(endRaw) == "" {
		y, m, d := now.In(loc).AddDate(0, 0, -1).Date()
		end = time.Date(y, m, d, 0, 0, 0, 0, loc)
	} else if end, err = Date(endRaw, loc); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date: %w", err)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return start, end, nil
}
