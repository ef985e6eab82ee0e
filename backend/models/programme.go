package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Programme struct {
	gorm.Model
	HumanReadableID string                        `gorm:"uniqueIndex;not null" json:"human_readable_id"`
	Name            string                        `gorm:"not null" json:"name"`
	StartDate       time.Time                     `gorm:"type:date;not null" json:"start_date"`
	EndDate         *time.Time                    `gorm:"type:date" json:"end_date"`    // nil means open-ended
	MaxClients      int                           `gorm:"default:0" json:"max_clients"` // 0 means unlimited
	Cost            float64                       `json:"cost"`
	Notes           string                        `json:"notes"`
	Adhoc           datatypes.JSONType[AdhocData] `json:"adhoc"`
	ProgrammeHabits []ProgrammeHabit              `json:"programme_habits,omitempty"`
	Enrolments      []ProgrammeEnrolment          `json:"enrolments,omitempty"`
}

// Covers reports whether the civil day falls inside [StartDate, EndDate].
func (p Programme) Covers(day time.Time) bool {
	day = civil(day)
	if day.Before(civil(p.StartDate)) {
		return false
	}
	if p.EndDate != nil && day.After(civil(*p.EndDate)) {
		return false
	}
	return true
}

type Habit struct {
	gorm.Model
	Title     string `gorm:"not null" json:"title"`
	Notes     string `json:"notes"`
	Frequency string `json:"frequency"` // free text default, e.g. "twice daily"
}

// WeeklyFrequency holds the repetitions required on each weekday. Zero means
// the habit is not scheduled that day.
type WeeklyFrequency struct {
	Monday    int `gorm:"not null;default:0;check:monday >= 0" json:"monday"`
	Tuesday   int `gorm:"not null;default:0;check:tuesday >= 0" json:"tuesday"`
	Wednesday int `gorm:"not null;default:0;check:wednesday >= 0" json:"wednesday"`
	Thursday  int `gorm:"not null;default:0;check:thursday >= 0" json:"thursday"`
	Friday    int `gorm:"not null;default:0;check:friday >= 0" json:"friday"`
	Saturday  int `gorm:"not null;default:0;check:saturday >= 0" json:"saturday"`
	Sunday    int `gorm:"not null;default:0;check:sunday >= 0" json:"sunday"`
}

// On returns the frequency for the given weekday.
func (f WeeklyFrequency) On(wd time.Weekday) int {
	switch wd {
	case time.Sunday:
		return f.Sunday
	case time.Monday:
		return f.Monday
	case time.Tuesday:
		return f.Tuesday
	case time.Wednesday:
		return f.Wednesday
	case time.Thursday:
		return f.Thursday
	case time.Friday:
		return f.Friday
	case time.Saturday:
		return f.Saturday
	}
	return 0
}

type ProgrammeHabit struct {
	gorm.Model
	ProgrammeID     uint      `gorm:"index;not null" json:"programme_id"`
	Programme       Programme `json:"-"`
	HabitID         uint      `gorm:"index;not null" json:"habit_id"`
	Habit           Habit     `json:"habit"`
	WeeklyFrequency `gorm:"embedded"`
	FrequencyPerDay *int   `gorm:"check:frequency_per_day IS NULL OR frequency_per_day >= 1" json:"frequency_per_day"`
	Notes           string `json:"notes"`
	Current         bool   `gorm:"not null;default:true" json:"current"`
}

// RequiredOn is the number of repetitions that completes the habit on the
// given weekday. The per-day override wins over the weekday target and the
// result is never below one.
func (ph ProgrammeHabit) RequiredOn(wd time.Weekday) int {
	required := ph.On(wd)
	if ph.FrequencyPerDay != nil {
		required = *ph.FrequencyPerDay
	}
	if required < 1 {
		return 1
	}
	return required
}

// ScheduledOn reports whether the weekday target is positive.
func (ph ProgrammeHabit) ScheduledOn(wd time.Weekday) bool {
	return ph.Current && ph.On(wd) > 0
}

type ProgrammeEnrolment struct {
	gorm.Model
	ProgrammeID uint                          `gorm:"not null;uniqueIndex:idx_enrolment_client_programme" json:"programme_id"`
	Programme   Programme                     `json:"programme,omitempty"`
	ClientID    uint                          `gorm:"not null;uniqueIndex:idx_enrolment_client_programme" json:"client_id"`
	Client      Client                        `json:"client,omitempty"`
	Notes       string                        `json:"notes"`
	Adhoc       datatypes.JSONType[AdhocData] `json:"adhoc"`
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
