// Package services coordinates repositories and the pure habit logic behind
// the HTTP handlers.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
	"github.com/brentedwards-nz/Benefit-sub000/backend/habits"
	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
	"github.com/brentedwards-nz/Benefit-sub000/backend/repository"
	"github.com/brentedwards-nz/Benefit-sub000/backend/utils"
)

type ProgrammeReader interface {
	EnrolledProgrammes(ctx context.Context, clientID uint, from, to time.Time) ([]models.Programme, error)
	ProgrammeHabit(ctx context.Context, id uint) (*models.ProgrammeHabit, error)
	IsEnrolled(ctx context.Context, clientID, programmeID uint) (bool, error)
}

type CompletionStore interface {
	CompletionsBetween(ctx context.Context, clientID uint, from, to time.Time) ([]models.ClientHabit, error)
	UpsertCompletion(ctx context.Context, key repository.CompletionKey, mutate func(models.ClientHabit) models.ClientHabit) (models.ClientHabit, error)
}

type ClientReader interface {
	Client(ctx context.Context, id uint) (*models.Client, error)
	ClientByUserID(ctx context.Context, userID uint) (*models.Client, error)
}

type HabitService struct {
	Programmes  ProgrammeReader
	Completions CompletionStore
	Clients     ClientReader

	Location       *time.Location
	EditWindowDays int
	LookaheadDays  int
	MaxRangeDays   int
	Now            func() time.Time
}

func NewHabitService(db *gorm.DB, cfg *config.Config) *HabitService {
	return &HabitService{
		Programmes:     repository.NewProgrammeRepository(db),
		Completions:    repository.NewCompletionRepository(db),
		Clients:        repository.NewClientRepository(db),
		Location:       cfg.Location(),
		EditWindowDays: cfg.EditWindowDays,
		LookaheadDays:  cfg.LookaheadDays,
		MaxRangeDays:   cfg.MaxRangeDays,
		Now:            time.Now,
	}
}

// CompletionRequest is one change to a client's record for a day.
type CompletionRequest struct {
	Date   time.Time
	Intent habits.Intent
	Notes  *string
}

// Today is the current calendar day at midnight in the service location.
func (s *HabitService) Today() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return habits.StartOfDay(now().In(s.location()))
}

func (s *HabitService) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// ClientForUser resolves the client record owned by an authenticated user.
func (s *HabitService) ClientForUser(ctx context.Context, userID uint) (*models.Client, error) {
	client, err := s.Clients.ClientByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.Missing("No client profile for user %d", userID)
		}
		return nil, utils.StorageFailure(err, "Failed to load client")
	}
	return client, nil
}

func (s *HabitService) requireClient(ctx context.Context, clientID uint) error {
	if _, err := s.Clients.Client(ctx, clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Missing("Client %d not found", clientID)
		}
		return utils.StorageFailure(err, "Failed to load client")
	}
	return nil
}

// GetHabitDayData returns one entry per day in [start, end]. Any storage
// failure fails the whole range.
func (s *HabitService) GetHabitDayData(ctx context.Context, clientID uint, start, end time.Time) ([]habits.DayData, error) {
	r, err := habits.ToDateRange(start, end)
	if err != nil {
		return nil, utils.InvalidInput("%s", err.Error())
	}

	if s.MaxRangeDays > 0 && habits.CalendarDays(start, end) >= s.MaxRangeDays {
		return nil, utils.InvalidInput("date range may span at most %d days", s.MaxRangeDays)
	}

	limit := s.Today().AddDate(0, 0, s.LookaheadDays)
	if habits.CivilDate(r.End).After(habits.CivilDate(limit)) {
		return nil, utils.InvalidInput("end date may not be after %s", habits.DayKey(limit))
	}

	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}

	days := r.Days()
	last := days[len(days)-1]

	programmes, err := s.Programmes.EnrolledProgrammes(ctx, clientID, r.Start, last)
	if err != nil {
		return nil, utils.StorageFailure(err, "Failed to load programmes")
	}
	records, err := s.Completions.CompletionsBetween(ctx, clientID, r.Start, last)
	if err != nil {
		return nil, utils.StorageFailure(err, "Failed to load completions")
	}

	return habits.Summarize(r, programmes, habits.IndexRecords(records)), nil
}

// GetDailyHabits returns the habits scheduled for date with their progress.
func (s *HabitService) GetDailyHabits(ctx context.Context, clientID uint, date time.Time) ([]habits.DailyHabit, error) {
	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}

	day := habits.StartOfDay(date)
	programmes, err := s.Programmes.EnrolledProgrammes(ctx, clientID, day, day)
	if err != nil {
		return nil, utils.StorageFailure(err, "Failed to load programmes")
	}
	records, err := s.Completions.CompletionsBetween(ctx, clientID, day, day)
	if err != nil {
		return nil, utils.StorageFailure(err, "Failed to load completions")
	}

	return habits.DailyHabits(day, programmes, habits.IndexRecords(records)), nil
}

// UpsertCompletion applies req to the (programme habit, client, day) record,
// creating it when absent. The stored completed flag is always derived from
// the clamped count and the day's requirement.
func (s *HabitService) UpsertCompletion(ctx context.Context, clientID, programmeHabitID uint, req CompletionRequest) (habits.Outcome, error) {
	if err := req.Intent.Validate(); err != nil {
		return habits.Outcome{}, utils.InvalidInput("%s", err.Error())
	}
	if err := s.requireClient(ctx, clientID); err != nil {
		return habits.Outcome{}, err
	}

	ph, err := s.Programmes.ProgrammeHabit(ctx, programmeHabitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return habits.Outcome{}, utils.Missing("Programme habit %d not found", programmeHabitID)
		}
		return habits.Outcome{}, utils.StorageFailure(err, "Failed to load programme habit")
	}
	if ph.Programme.ID == 0 {
		// The preload skips soft-deleted programmes.
		return habits.Outcome{}, utils.Missing("Programme %d not found", ph.ProgrammeID)
	}
	if !ph.Current {
		return habits.Outcome{}, utils.Missing("Programme habit %d is no longer part of the programme", programmeHabitID)
	}

	enrolled, err := s.Programmes.IsEnrolled(ctx, clientID, ph.ProgrammeID)
	if err != nil {
		return habits.Outcome{}, utils.StorageFailure(err, "Failed to check enrolment")
	}
	if !enrolled {
		return habits.Outcome{}, utils.NotPermitted("Client is not enrolled in programme %d", ph.ProgrammeID)
	}

	day := habits.StartOfDay(req.Date)
	if !ph.Programme.Covers(day) {
		return habits.Outcome{}, utils.OutOfWindow("%s is outside the programme dates", habits.DayKey(day))
	}

	today := s.Today()
	earliest := today.AddDate(0, 0, -s.EditWindowDays)
	if habits.CivilDate(day).Before(habits.CivilDate(earliest)) || habits.CivilDate(day).After(habits.CivilDate(today)) {
		return habits.Outcome{}, utils.OutOfWindow("%s can no longer be edited, allowed %s to %s",
			habits.DayKey(day), habits.DayKey(earliest), habits.DayKey(today))
	}

	required := ph.RequiredOn(day.Weekday())
	var outcome habits.Outcome

	_, err = s.Completions.UpsertCompletion(ctx, repository.CompletionKey{
		ProgrammeHabitID: ph.ID,
		ClientID:         clientID,
		Date:             day,
	}, func(current models.ClientHabit) models.ClientHabit {
		outcome = habits.Apply(current.TimesDone, req.Intent, required)
		current.TimesDone = outcome.TimesDone
		current.Completed = outcome.Completed
		if req.Notes != nil {
			current.Notes = req.Notes
		}
		return current
	})
	if err != nil {
		return habits.Outcome{}, utils.StorageFailure(err, "Failed to save completion")
	}

	return outcome, nil
}
