package models

import "time"

// MaxTimesDone caps the repetitions recorded for one habit on one day.
const MaxTimesDone = 20

// ClientHabit is the completion record for one programme habit, one client
// and one calendar day.
type ClientHabit struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ProgrammeHabitID uint           `gorm:"not null;uniqueIndex:idx_client_habit_day" json:"programme_habit_id"`
	ProgrammeHabit   ProgrammeHabit `json:"-"`
	ClientID         uint           `gorm:"not null;uniqueIndex:idx_client_habit_day;index" json:"client_id"`
	Date             time.Time      `gorm:"type:date;not null;uniqueIndex:idx_client_habit_day" json:"date"`
	TimesDone        int            `gorm:"not null;default:0;check:times_done >= 0 AND times_done <= 20" json:"times_done"`
	Completed        bool           `gorm:"not null;default:false" json:"completed"`
	Notes            *string        `json:"notes,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
