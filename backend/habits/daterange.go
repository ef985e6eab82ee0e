// Package habits computes scheduled and completed habit counts for a client
// from fully resolved programme and completion data. Nothing here touches
// storage or request state.
package habits

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidRange = errors.New("start date is after end date")

// maxElapsedDays is the longest span time.Duration can hold in whole days.
const maxElapsedDays = int(math.MaxInt64 / int64(24*time.Hour))

// DateRange is a normalized run of calendar days beginning at Start.
type DateRange struct {
	Start    time.Time
	End      time.Time
	Duration int
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ToDateRange truncates both bounds to midnight. Duration counts whole days
// from the truncated start to the untruncated end, so an end instant that
// sits less than 24h past the last midnight (DST changes included) can
// yield one day fewer than the calendar span. Spans too long for
// time.Duration are counted by calendar date instead.
func ToDateRange(start, end time.Time) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	truncStart := StartOfDay(start)
	duration := CalendarDays(start, end)
	if duration < maxElapsedDays {
		duration = int(end.Sub(truncStart) / (24 * time.Hour))
	}
	return DateRange{
		Start:    truncStart,
		End:      StartOfDay(end),
		Duration: duration,
	}, nil
}

// CalendarDays counts local calendar days from start's date to end's date.
func CalendarDays(start, end time.Time) int {
	return int((CivilDate(end).Unix() - CivilDate(start).Unix()) / 86400)
}

// Days returns Duration+1 midnights starting at Start.
func (r DateRange) Days() []time.Time {
	days := make([]time.Time, 0, r.Duration+1)
	for i := 0; i <= r.Duration; i++ {
		days = append(days, r.Start.AddDate(0, 0, i))
	}
	return days
}

// CivilDate maps t to midnight UTC of its local calendar day, the form in
// which days are stored.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats the local calendar day of t.
func DayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
