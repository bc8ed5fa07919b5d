package engine

import (
	"fmt"
	"regexp"
	"strconv"

	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// ClockPattern matches zero-padded 24-hour HH:MM values.
var ClockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Clock is a time of day expressed in minutes since midnight.
type Clock int

// ParseClock validates and converts an HH:MM string.
func ParseClock(raw string) (Clock, error) {
	if !ClockPattern.MatchString(raw) {
		return 0, fmt.Errorf("invalid time %q: expected zero-padded HH:MM", raw)
	}
	hours, _ := strconv.Atoi(raw[:2])
	minutes, _ := strconv.Atoi(raw[3:])
	return Clock(hours*60 + minutes), nil
}

// String renders the clock back to HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Interval is a half-open [Start, End) range within one weekday.
type Interval struct {
	Start Clock
	End   Clock
}

// NewInterval parses both bounds and enforces start < end.
func NewInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	if s >= e {
		return Interval{}, fmt.Errorf("end time %s must be after start time %s", end, start)
	}
	return Interval{Start: s, End: e}, nil
}

// Overlaps reports whether two half-open intervals intersect. Touching bounds do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Window is a weekday plus time range used for conflict and availability queries.
type Window struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}

// Validate checks the weekday range and the time ordering.
func (w Window) Validate() (Interval, error) {
	if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
		return Interval{}, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "dayOfWeek must be between 0 and 6"),
			map[string]string{"dayOfWeek": "must be between 0 and 6"},
		)
	}
	interval, err := NewInterval(w.StartTime, w.EndTime)
	if err != nil {
		return Interval{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time range")
	}
	return interval, nil
}
