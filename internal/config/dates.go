// internal/config/dates.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date layout used by both services.
const DateLayout = "2006-01-02"

// ErrConflictingDateSelection is returned when both an explicit date list and a
// date range are configured.
var ErrConflictingDateSelection = errors.New("config: only one of TARGET_DATES or TARGET_DATE_RANGE may be set")

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start string
	End   string
}

// ParseDateRange parses "start,end".
func ParseDateRange(raw string) (DateRange, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return DateRange{}, fmt.Errorf("config: date range %q must be \"start,end\"", raw)
	}
	r := DateRange{Start: strings.TrimSpace(parts[0]), End: strings.TrimSpace(parts[1])}
	if _, _, err := r.bounds(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func (r DateRange) bounds() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config: invalid range start %q: %w", r.Start, err)
	}
	end, err := time.Parse(DateLayout, r.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config: invalid range end %q: %w", r.End, err)
	}
	return start, end, nil
}

// Expand returns every date from start to end inclusive. A range ending before
// it starts is empty.
func (r DateRange) Expand() ([]string, error) {
	start, end, err := r.bounds()
	if err != nil {
		return nil, err
	}
	var dates []string
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day.Format(DateLayout))
	}
	return dates, nil
}

// SelectDates resolves the date selection: an explicit list is returned as is,
// a range is expanded, and neither yields an empty selection.
func SelectDates(dates []string, dateRange *DateRange) ([]string, error) {
	if len(dates) > 0 && dateRange != nil {
		return nil, ErrConflictingDateSelection
	}
	if len(dates) > 0 {
		out := make([]string, len(dates))
		copy(out, dates)
		return out, nil
	}
	if dateRange != nil {
		return dateRange.Expand()
	}
	return []string{}, nil
}
