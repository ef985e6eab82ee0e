package habits

import (
	"time"

	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
)

// Colour classifies a day for the calendar view.
type Colour string

const (
	ColourLocked   Colour = "locked"
	ColourRest     Colour = "rest"
	ColourNone     Colour = "none"
	ColourPartial  Colour = "partial"
	ColourComplete Colour = "complete"
)

// ScheduledHabit is a programme habit due on a particular day.
type ScheduledHabit struct {
	ProgrammeHabit models.ProgrammeHabit
	Required       int
}

type DailyHabit struct {
	ProgrammeHabitID uint    `json:"programme_habit_id"`
	ProgrammeID      uint    `json:"programme_id"`
	HabitID          uint    `json:"habit_id"`
	Title            string  `json:"title"`
	TimesDone        int     `json:"times_done"`
	RequiredPerDay   int     `json:"required_per_day"`
	Completed        bool    `json:"completed"`
	Notes            *string `json:"notes,omitempty"`
}

type DayData struct {
	Date           string       `json:"date"`
	ScheduledCount int          `json:"scheduled_count"`
	CompletedCount int          `json:"completed_count"`
	CompletionRate float64      `json:"completion_rate"`
	IsProgrammeDay bool         `json:"is_programme_day"`
	Colour         Colour       `json:"colour"`
	Habits         []DailyHabit `json:"habits"`
}

type recordKey struct {
	programmeHabitID uint
	day              string
}

// Records indexes completion records by programme habit and calendar day.
type Records map[recordKey]models.ClientHabit

func IndexRecords(records []models.ClientHabit) Records {
	idx := make(Records, len(records))
	for _, r := range records {
		idx[recordKey{r.ProgrammeHabitID, DayKey(r.Date)}] = r
	}
	return idx
}

func (r Records) Lookup(programmeHabitID uint, day time.Time) (models.ClientHabit, bool) {
	rec, ok := r[recordKey{programmeHabitID, DayKey(day)}]
	return rec, ok
}

// ScheduledOn lists the programme habits due on day and reports whether day
// falls inside any programme window. Programmes whose window misses the day
// contribute nothing, whatever their weekday targets.
func ScheduledOn(day time.Time, programmes []models.Programme) ([]ScheduledHabit, bool) {
	wd := day.Weekday()
	isProgrammeDay := false
	var scheduled []ScheduledHabit

	for _, p := range programmes {
		if !p.Covers(day) {
			continue
		}
		isProgrammeDay = true
		for _, ph := range p.ProgrammeHabits {
			if !ph.ScheduledOn(wd) {
				continue
			}
			scheduled = append(scheduled, ScheduledHabit{
				ProgrammeHabit: ph,
				Required:       ph.RequiredOn(wd),
			})
		}
	}
	return scheduled, isProgrammeDay
}

// CompletedOn counts scheduled habits whose record meets the requirement.
// A missing record is zero repetitions.
func CompletedOn(day time.Time, scheduled []ScheduledHabit, records Records) int {
	completed := 0
	for _, s := range scheduled {
		rec, ok := records.Lookup(s.ProgrammeHabit.ID, day)
		if ok && rec.TimesDone >= s.Required {
			completed++
		}
	}
	return completed
}

func CompletionRate(scheduled, completed int) float64 {
	if scheduled == 0 {
		return 0
	}
	return float64(completed) / float64(scheduled)
}

func DayColour(isProgrammeDay bool, scheduled int, rate float64) Colour {
	switch {
	case !isProgrammeDay:
		return ColourLocked
	case scheduled == 0:
		return ColourRest
	case rate >= 1:
		return ColourComplete
	case rate > 0:
		return ColourPartial
	default:
		return ColourNone
	}
}

// DailyHabits is the per-habit breakdown for one day.
func DailyHabits(day time.Time, programmes []models.Programme, records Records) []DailyHabit {
	scheduled, _ := ScheduledOn(day, programmes)
	return dailyHabits(day, scheduled, records)
}

func dailyHabits(day time.Time, scheduled []ScheduledHabit, records Records) []DailyHabit {
	out := make([]DailyHabit, 0, len(scheduled))
	for _, s := range scheduled {
		ph := s.ProgrammeHabit
		d := DailyHabit{
			ProgrammeHabitID: ph.ID,
			ProgrammeID:      ph.ProgrammeID,
			HabitID:          ph.HabitID,
			Title:            ph.Habit.Title,
			RequiredPerDay:   s.Required,
		}
		if rec, ok := records.Lookup(ph.ID, day); ok {
			d.TimesDone = rec.TimesDone
			d.Notes = rec.Notes
		}
		d.Completed = d.TimesDone >= d.RequiredPerDay
		out = append(out, d)
	}
	return out
}

// Summarize builds one entry per day of r. It never drops a day.
func Summarize(r DateRange, programmes []models.Programme, records Records) []DayData {
	days := r.Days()
	out := make([]DayData, 0, len(days))
	for _, day := range days {
		scheduled, isProgrammeDay := ScheduledOn(day, programmes)
		completed := CompletedOn(day, scheduled, records)
		rate := CompletionRate(len(scheduled), completed)

		out = append(out, DayData{
			Date:           DayKey(day),
			ScheduledCount: len(scheduled),
			CompletedCount: completed,
			CompletionRate: rate,
			IsProgrammeDay: isProgrammeDay,
			Colour:         DayColour(isProgrammeDay, len(scheduled), rate),
			Habits:         dailyHabits(day, scheduled, records),
		})
	}
	return out
}
